package testutils

import (
	"context"
	"sync"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/internal/shared"
	"google.golang.org/protobuf/proto"
)

var _ datastore.Connection = (*MemoryConnection)(nil)

// MemoryConnection is an in-process datastore.Connection.
// It runs its middlewares like a real connection and records every RPC
// that reaches the end of the chain.
type MemoryConnection struct {
	shared.MiddlewareHolder

	m        sync.Mutex
	entities map[string]*datastorepb.Entity
	deferred map[string]bool
	lastID   int64

	// Err is returned by every RPC when set.
	Err error

	LookupCalls   int
	AllocateCalls int
	LastDatasetID string
	LastKeys      []*datastorepb.Key
}

// NewMemoryConnection returns an empty MemoryConnection.
func NewMemoryConnection() *MemoryConnection {
	return &MemoryConnection{
		entities: make(map[string]*datastorepb.Entity),
		deferred: make(map[string]bool),
	}
}

// Put stores entity. A following lookup of its key finds it.
func (c *MemoryConnection) Put(entity *datastore.Entity) {
	c.m.Lock()
	defer c.m.Unlock()

	c.entities[entity.Key.Encode()] = entity.Proto()
}

// Defer makes lookups of key report it as deferred.
func (c *MemoryConnection) Defer(key *datastore.Key) {
	c.m.Lock()
	defer c.m.Unlock()

	c.deferred[key.Encode()] = true
}

func (c *MemoryConnection) Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	cb := shared.NewMiddlewareBridge(&datastore.MiddlewareInfo{
		Context:   ctx,
		DatasetID: datasetID,
	}, &memoryBridge{c}, c.Middlewares())

	return cb.Lookup(cb.Info, keys)
}

func (c *MemoryConnection) AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	cb := shared.NewMiddlewareBridge(&datastore.MiddlewareInfo{
		Context:   ctx,
		DatasetID: datasetID,
	}, &memoryBridge{c}, c.Middlewares())

	return cb.AllocateIDs(cb.Info, keys)
}

type memoryBridge struct {
	c *MemoryConnection
}

func (b *memoryBridge) Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	c := b.c
	c.m.Lock()
	defer c.m.Unlock()

	c.LookupCalls++
	c.LastDatasetID = datasetID
	c.LastKeys = keys

	if c.Err != nil {
		return nil, c.Err
	}

	resp := &datastorepb.LookupResponse{}
	for _, pKey := range keys {
		key, err := datastore.KeyFromProto(pKey)
		if err != nil {
			return nil, err
		}
		encoded := key.Encode()

		if c.deferred[encoded] {
			resp.Deferred = append(resp.Deferred, proto.Clone(pKey).(*datastorepb.Key))
			continue
		}
		if e, ok := c.entities[encoded]; ok {
			resp.Found = append(resp.Found, &datastorepb.EntityResult{
				Entity: proto.Clone(e).(*datastorepb.Entity),
			})
			continue
		}
		resp.Missing = append(resp.Missing, &datastorepb.EntityResult{
			Entity: &datastorepb.Entity{Key: proto.Clone(pKey).(*datastorepb.Key)},
		})
	}

	return resp, nil
}

func (b *memoryBridge) AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	c := b.c
	c.m.Lock()
	defer c.m.Unlock()

	c.AllocateCalls++
	c.LastDatasetID = datasetID
	c.LastKeys = keys

	if c.Err != nil {
		return nil, c.Err
	}

	resp := make([]*datastorepb.Key, 0, len(keys))
	for _, pKey := range keys {
		c.lastID++
		completed := proto.Clone(pKey).(*datastorepb.Key)
		completed.Path[len(completed.Path)-1].IdType = &datastorepb.Key_PathElement_Id{Id: c.lastID}
		resp = append(resp, completed)
	}

	return resp, nil
}
