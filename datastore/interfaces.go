package datastore

import (
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
)

// Connection is the RPC capability the lookup and allocation calls consume.
// Implementations own the transport; errors they return reach the caller unchanged.
type Connection interface {
	// Lookup returns found, missing and deferred results for keys.
	Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error)
	// AllocateIDs completes incomplete keys, in request order.
	AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error)
}

// Middleware intercepts every RPC of a connection that supports it.
// A middleware calls info.Next to continue the chain.
type Middleware interface {
	Lookup(info *MiddlewareInfo, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error)
	AllocateIDs(info *MiddlewareInfo, keys []*datastorepb.Key) ([]*datastorepb.Key, error)
}

// MiddlewareInfo is passed along the middleware chain of one RPC.
// Next is the rest of the chain, ending with the transport.
type MiddlewareInfo struct {
	Context   context.Context
	DatasetID string
	Next      Middleware
}
