package datastore

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
)

// AllocateIDs asks the backend for n ids for the incomplete key and returns
// the completed keys in the order the backend returned them.
// A complete key fails with ErrKeyComplete whatever n is.
func (e *Environment) AllocateIDs(ctx context.Context, key *Key, n int, opts ...CallOption) ([]*Key, error) {
	if !key.Valid() {
		return nil, ErrInvalidKey
	}
	if !key.Incomplete() {
		return nil, ErrKeyComplete
	}
	if n < 0 {
		return nil, &InvalidArgumentError{Reason: fmt.Sprintf("num ids must not be negative, got %d", n)}
	}

	settings := newCallSettings(opts)

	datasetID, err := e.resolveKeys([]*Key{key}, settings.datasetID)
	if err != nil {
		return nil, err
	}
	conn, err := e.ResolveConnection(settings.conn)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return []*Key{}, nil
	}

	pKeys := make([]*datastorepb.Key, n)
	for idx := range pKeys {
		pKeys[idx] = keyToProto(key, datasetID)
	}

	respKeys, err := conn.AllocateIDs(ctx, datasetID, pKeys)
	if err != nil {
		return nil, err
	}
	if len(respKeys) != n {
		return nil, fmt.Errorf("datastore: AllocateIDs returned %d keys, requested %d", len(respKeys), n)
	}

	return keysFromProto(respKeys)
}

// AllocateIDs is Environment.AllocateIDs on the default Environment.
func AllocateIDs(ctx context.Context, key *Key, n int, opts ...CallOption) ([]*Key, error) {
	return defaultEnvironment.AllocateIDs(ctx, key, n, opts...)
}
