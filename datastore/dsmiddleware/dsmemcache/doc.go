/*
Package dsmemcache provides caching of Lookup results by memcached.
How the cache is used is explained in the storagecache package.

Related document.

https://godoc.org/github.com/bradfitz/gomemcache/memcache
*/
package dsmemcache // import "go.mercari.io/gcloud/datastore/dsmiddleware/dsmemcache"
