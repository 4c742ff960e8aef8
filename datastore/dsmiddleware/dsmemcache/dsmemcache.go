package dsmemcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/bradfitz/gomemcache/memcache"
	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/datastore/dsmiddleware/storagecache"
	"google.golang.org/protobuf/proto"
)

var _ storagecache.Storage = (*Cache)(nil)
var _ datastore.Middleware = (*Cache)(nil)

const (
	keyPrefix         = "mercari:dsmemcache:"
	defaultExpiration = 15 * time.Minute
)

// Cache is a storagecache.Storage on memcached and the read-through
// middleware over it.
type Cache struct {
	datastore.Middleware

	client *memcache.Client
	cfg    *storagecache.Config
}

// New returns a Cache on client. Entries expire after 15 minutes unless
// storagecache.WithExpireDuration says otherwise.
func New(client *memcache.Client, opts ...storagecache.Option) *Cache {
	c := &Cache{
		client: client,
		cfg:    storagecache.NewConfig(keyPrefix, defaultExpiration, opts...),
	}
	c.Middleware = storagecache.New(c, c.cfg)
	return c
}

// validKey mirrors the key rules memcached enforces.
func validKey(cacheKey string) bool {
	if len(cacheKey) == 0 || len(cacheKey) > storagecache.MaxKeyLength {
		return false
	}
	for i := 0; i < len(cacheKey); i++ {
		if cacheKey[i] <= ' ' || cacheKey[i] == 0x7f {
			return false
		}
	}
	return true
}

// SetMulti stores each item on its own. An item that cannot be stored is
// skipped and the first such error is returned after the others are stored.
func (c *Cache) SetMulti(ctx context.Context, cis []*storagecache.CacheItem) error {
	var firstErr error
	stored := 0
	for _, ci := range cis {
		err := c.set(ci)
		if err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.SetMulti: key=%s err=%s", ci.Key.String(), err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.SetMulti: len=%d stored=%d", len(cis), stored)

	return firstErr
}

func (c *Cache) set(ci *storagecache.CacheItem) error {
	cacheKey := c.cfg.CacheKey(ci.Key)
	if !validKey(cacheKey) {
		return fmt.Errorf("dsmiddleware/dsmemcache: invalid cache key %q", cacheKey)
	}
	b, err := proto.Marshal(ci.Entity)
	if err != nil {
		return err
	}

	var expiration int32
	if c.cfg.Expiration > 0 {
		expiration = int32(c.cfg.Expiration / time.Second)
	}
	return c.client.Set(&memcache.Item{
		Key:        cacheKey,
		Value:      b,
		Expiration: expiration,
	})
}

// GetMulti fetches all valid cache keys in one request. Keys memcached would
// reject are reported as misses.
func (c *Cache) GetMulti(ctx context.Context, keys []*datastore.Key) ([]*storagecache.CacheItem, error) {
	cis := make([]*storagecache.CacheItem, len(keys))

	cacheKeys := make([]string, len(keys))
	query := make([]string, 0, len(keys))
	for idx, key := range keys {
		cacheKey := c.cfg.CacheKey(key)
		if !validKey(cacheKey) {
			c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.GetMulti: key=%s invalid cache key %q", key.String(), cacheKey)
			continue
		}
		cacheKeys[idx] = cacheKey
		query = append(query, cacheKey)
	}
	if len(query) == 0 {
		return cis, nil
	}

	items, err := c.client.GetMulti(query)
	if err != nil {
		return nil, err
	}

	hit := 0
	for idx, key := range keys {
		item, ok := items[cacheKeys[idx]]
		if !ok {
			continue
		}
		entity := &datastorepb.Entity{}
		if err := proto.Unmarshal(item.Value, entity); err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.GetMulti: key=%s err=%s", key.String(), err.Error())
			continue
		}
		if err := storagecache.Verify(key, entity); err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.GetMulti: key=%s err=%s", key.String(), err.Error())
			continue
		}
		cis[idx] = &storagecache.CacheItem{Key: key, Entity: entity}
		hit++
	}
	c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.GetMulti: len=%d hit=%d", len(keys), hit)

	return cis, nil
}

// DeleteMulti deletes every key it can. Absent entries are not an error.
func (c *Cache) DeleteMulti(ctx context.Context, keys []*datastore.Key) error {
	var firstErr error
	for _, key := range keys {
		cacheKey := c.cfg.CacheKey(key)
		if !validKey(cacheKey) {
			continue
		}
		err := c.client.Delete(cacheKey)
		if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.DeleteMulti: key=%s err=%s", key.String(), err.Error())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.cfg.Logf(ctx, "dsmiddleware/dsmemcache.DeleteMulti: len=%d", len(keys))

	return firstErr
}
