// Package rediscache stores looked-up entities in Redis.
package rediscache // import "go.mercari.io/gcloud/datastore/dsmiddleware/rediscache"

import (
	"context"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/golang/protobuf/proto"
	"github.com/gomodule/redigo/redis"
	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/datastore/dsmiddleware/storagecache"
)

var _ storagecache.Storage = (*Cache)(nil)
var _ datastore.Middleware = (*Cache)(nil)

const (
	keyPrefix         = "mercari:rediscache:"
	defaultExpiration = 15 * time.Minute
)

// Cache is a storagecache.Storage on a Redis connection and the read-through
// middleware over it. Every batch is one MULTI/EXEC transaction.
//
// conn is not safe for concurrent use; give each goroutine its own Cache
// or a connection that serializes access.
type Cache struct {
	datastore.Middleware

	conn redis.Conn
	cfg  *storagecache.Config
}

// New returns a Cache on conn. Entries expire after 15 minutes unless
// storagecache.WithExpireDuration says otherwise.
func New(conn redis.Conn, opts ...storagecache.Option) *Cache {
	c := &Cache{
		conn: conn,
		cfg:  storagecache.NewConfig(keyPrefix, defaultExpiration, opts...),
	}
	c.Middleware = storagecache.New(c, c.cfg)
	return c
}

type command struct {
	name string
	args []interface{}
}

// transact queues cmds between MULTI and EXEC and returns the EXEC reply.
func (c *Cache) transact(cmds []command) (interface{}, error) {
	if err := c.conn.Send("MULTI"); err != nil {
		return nil, err
	}
	for _, cmd := range cmds {
		if err := c.conn.Send(cmd.name, cmd.args...); err != nil {
			return nil, err
		}
	}
	return c.conn.Do("EXEC")
}

func (c *Cache) SetMulti(ctx context.Context, cis []*storagecache.CacheItem) error {
	cmds := make([]command, 0, len(cis))
	for _, ci := range cis {
		b, err := proto.Marshal(ci.Entity)
		if err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/rediscache.SetMulti: key=%s err=%s", ci.Key.String(), err.Error())
			continue
		}
		args := []interface{}{c.cfg.CacheKey(ci.Key), b}
		if ms := c.cfg.Expiration.Milliseconds(); ms > 0 {
			args = append(args, "PX", ms)
		}
		cmds = append(cmds, command{name: "SET", args: args})
	}
	c.cfg.Logf(ctx, "dsmiddleware/rediscache.SetMulti: len=%d stored=%d", len(cis), len(cmds))
	if len(cmds) == 0 {
		return nil
	}

	_, err := c.transact(cmds)
	return err
}

func (c *Cache) GetMulti(ctx context.Context, keys []*datastore.Key) ([]*storagecache.CacheItem, error) {
	cis := make([]*storagecache.CacheItem, len(keys))
	if len(keys) == 0 {
		return cis, nil
	}

	cmds := make([]command, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, command{name: "GET", args: []interface{}{c.cfg.CacheKey(key)}})
	}
	values, err := redis.ByteSlices(c.transact(cmds))
	if err != nil {
		return nil, err
	}

	hit := 0
	for idx, b := range values {
		if len(b) == 0 {
			continue
		}
		key := keys[idx]
		entity := &datastorepb.Entity{}
		if err := proto.Unmarshal(b, entity); err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/rediscache.GetMulti: key=%s err=%s", key.String(), err.Error())
			continue
		}
		if err := storagecache.Verify(key, entity); err != nil {
			c.cfg.Logf(ctx, "dsmiddleware/rediscache.GetMulti: key=%s err=%s", key.String(), err.Error())
			continue
		}
		cis[idx] = &storagecache.CacheItem{Key: key, Entity: entity}
		hit++
	}
	c.cfg.Logf(ctx, "dsmiddleware/rediscache.GetMulti: len=%d hit=%d", len(keys), hit)

	return cis, nil
}

func (c *Cache) DeleteMulti(ctx context.Context, keys []*datastore.Key) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		args = append(args, c.cfg.CacheKey(key))
	}
	c.cfg.Logf(ctx, "dsmiddleware/rediscache.DeleteMulti: len=%d", len(keys))

	_, err := c.transact([]command{{name: "DEL", args: args}})
	return err
}
