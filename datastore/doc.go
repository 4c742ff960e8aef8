/*
Package datastore resolves entity keys against a dataset and fetches them
from Cloud Datastore through a pluggable Connection.

Basic usage

Create a Connection with the clouddatastore package and bind it, together
with a default dataset id, into an Environment.

	conn, err := clouddatastore.FromContext(ctx)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	env := datastore.NewEnvironment(conn.ProjectID(), conn)

	key := datastore.IDKey("", "Kind", 1234, nil)
	var missing []*datastore.Key
	entities, err := env.Get(ctx, []*datastore.Key{key}, datastore.WithMissing(&missing))

Keys created with an empty dataset id are bound to the Environment's dataset
when a call is made. All keys of one call must belong to the same dataset,
otherwise the call fails with *MixedDatasetError before any RPC.

Explicit values always win

Every call accepts WithConnection and WithDatasetID. When given they are used
as is, and the Environment is consulted only for what is left unspecified.
If neither provides a value the call fails with *ConfigurationError.

The package-level Get, Lookup and AllocateIDs use DefaultEnvironment.
It is meant to be configured once at program start.

Partial results

A lookup returns three lists: found entities, missing keys and deferred keys.
Get returns the found entities and reports the other two through WithMissing
and WithDeferred. Lookup returns all three in a LookupResult. Deferred keys
are never retried automatically.

Middleware

Connections made by clouddatastore accept Middleware, applied first-in
first-apply to every RPC. See the dsmiddleware directory for logging,
fault injection and caching middlewares.
*/
package datastore // import "go.mercari.io/gcloud/datastore"
