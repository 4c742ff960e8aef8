// Package localcache keeps looked-up entities in process memory.
package localcache // import "go.mercari.io/gcloud/datastore/dsmiddleware/localcache"

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/datastore/dsmiddleware/storagecache"
	"google.golang.org/protobuf/proto"
)

var _ storagecache.Storage = (*Cache)(nil)
var _ datastore.Middleware = (*Cache)(nil)

const defaultExpiration = 3 * time.Minute

// Cache is an in-process storagecache.Storage and the read-through
// middleware over it. Entries are copied in and out, so callers may modify
// what they get.
type Cache struct {
	datastore.Middleware

	cfg *storagecache.Config
	now func() time.Time

	m       sync.Mutex
	entries map[string]entry
}

type entry struct {
	entity   *datastorepb.Entity
	expireAt time.Time // zero never expires
}

// New returns an empty Cache. Entries expire after 3 minutes unless
// storagecache.WithExpireDuration says otherwise.
func New(opts ...storagecache.Option) *Cache {
	c := &Cache{
		cfg:     storagecache.NewConfig("", defaultExpiration, opts...),
		now:     time.Now,
		entries: make(map[string]entry),
	}
	c.Middleware = storagecache.New(c, c.cfg)
	return c
}

// HasCache reports whether an entry for key is held, expired or not.
func (c *Cache) HasCache(key *datastore.Key) bool {
	c.m.Lock()
	defer c.m.Unlock()

	_, ok := c.entries[c.cfg.CacheKey(key)]
	return ok
}

// DeleteCache drops the entry for key.
func (c *Cache) DeleteCache(ctx context.Context, key *datastore.Key) {
	_ = c.DeleteMulti(ctx, []*datastore.Key{key})
}

// CacheKeys returns the cache keys held, sorted.
func (c *Cache) CacheKeys() []string {
	c.m.Lock()
	defer c.m.Unlock()

	list := make([]string, 0, len(c.entries))
	for cacheKey := range c.entries {
		list = append(list, cacheKey)
	}
	sort.Strings(list)
	return list
}

// CacheLen returns the number of entries, expired ones included.
func (c *Cache) CacheLen() int {
	c.m.Lock()
	defer c.m.Unlock()

	return len(c.entries)
}

// FlushLocalCache drops every entry.
func (c *Cache) FlushLocalCache() {
	c.m.Lock()
	defer c.m.Unlock()

	c.entries = make(map[string]entry)
}

func (c *Cache) SetMulti(ctx context.Context, cis []*storagecache.CacheItem) error {
	var expireAt time.Time
	if c.cfg.Expiration > 0 {
		expireAt = c.now().Add(c.cfg.Expiration)
	}

	c.m.Lock()
	defer c.m.Unlock()

	for _, ci := range cis {
		c.entries[c.cfg.CacheKey(ci.Key)] = entry{
			entity:   proto.Clone(ci.Entity).(*datastorepb.Entity),
			expireAt: expireAt,
		}
	}
	c.cfg.Logf(ctx, "dsmiddleware/localcache.SetMulti: len=%d", len(cis))

	return nil
}

func (c *Cache) GetMulti(ctx context.Context, keys []*datastore.Key) ([]*storagecache.CacheItem, error) {
	now := c.now()

	c.m.Lock()
	defer c.m.Unlock()

	cis := make([]*storagecache.CacheItem, len(keys))
	hit := 0
	for idx, key := range keys {
		cacheKey := c.cfg.CacheKey(key)
		e, ok := c.entries[cacheKey]
		if !ok {
			continue
		}
		if !e.expireAt.IsZero() && !now.Before(e.expireAt) {
			delete(c.entries, cacheKey)
			continue
		}
		if err := storagecache.Verify(key, e.entity); err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/localcache.GetMulti: key=%s err=%s", key.String(), err.Error())
			continue
		}
		cis[idx] = &storagecache.CacheItem{
			Key:    key,
			Entity: proto.Clone(e.entity).(*datastorepb.Entity),
		}
		hit++
	}
	c.cfg.Logf(ctx, "dsmiddleware/localcache.GetMulti: len=%d hit=%d", len(keys), hit)

	return cis, nil
}

func (c *Cache) DeleteMulti(ctx context.Context, keys []*datastore.Key) error {
	c.m.Lock()
	defer c.m.Unlock()

	for _, key := range keys {
		delete(c.entries, c.cfg.CacheKey(key))
	}
	c.cfg.Logf(ctx, "dsmiddleware/localcache.DeleteMulti: len=%d", len(keys))

	return nil
}
