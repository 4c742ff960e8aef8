package datastore

import (
	"context"
	"sort"
)

// LookupResult is the outcome of one lookup round-trip.
// None of the three lists is an error by itself.
type LookupResult struct {
	// Found holds the stored entities in backend order.
	Found []*Entity
	// Missing holds keys that have no stored entity.
	Missing []*Key
	// Deferred holds keys the backend did not process in this round.
	Deferred []*Key
}

// resolveKeys returns the single dataset all keys belong to.
// Keys without a dataset id are bound to the explicit one, or the default.
func (e *Environment) resolveKeys(keys []*Key, explicit string) (string, error) {
	ids := make(map[string]struct{})
	for _, key := range keys {
		if !key.Valid() {
			return "", ErrInvalidKey
		}
		if key.datasetID != "" {
			ids[key.datasetID] = struct{}{}
		}
	}
	if explicit != "" && len(ids) != 0 {
		ids[explicit] = struct{}{}
	}

	switch len(ids) {
	case 0:
		return e.ResolveDatasetID(explicit)
	case 1:
		for id := range ids {
			return id, nil
		}
	}

	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Strings(list)

	return "", &MixedDatasetError{DatasetIDs: list}
}

// Lookup fetches keys with a single RPC and reports found, missing and
// deferred results together. An empty keys returns an empty result without
// touching the Environment or any connection.
func (e *Environment) Lookup(ctx context.Context, keys []*Key, opts ...CallOption) (*LookupResult, error) {
	settings := newCallSettings(opts)

	if len(keys) == 0 {
		return &LookupResult{Found: []*Entity{}}, nil
	}

	datasetID, err := e.resolveKeys(keys, settings.datasetID)
	if err != nil {
		return nil, err
	}
	conn, err := e.ResolveConnection(settings.conn)
	if err != nil {
		return nil, err
	}

	resp, err := conn.Lookup(ctx, datasetID, keysToProto(keys, datasetID))
	if err != nil {
		return nil, err
	}

	res := &LookupResult{
		Found: make([]*Entity, 0, len(resp.GetFound())),
	}
	for _, er := range resp.GetFound() {
		entity, err := EntityFromProto(er.GetEntity())
		if err != nil {
			return nil, err
		}
		res.Found = append(res.Found, entity)
	}
	for _, er := range resp.GetMissing() {
		// only the key of a missing entity is meaningful.
		key, err := KeyFromProto(er.GetEntity().GetKey())
		if err != nil {
			return nil, err
		}
		res.Missing = append(res.Missing, key)
	}
	res.Deferred, err = keysFromProto(resp.GetDeferred())
	if err != nil {
		return nil, err
	}

	if settings.missing != nil {
		*settings.missing = append(*settings.missing, res.Missing...)
	}
	if settings.deferred != nil {
		*settings.deferred = append(*settings.deferred, res.Deferred...)
	}

	return res, nil
}

// Get returns the found entities for keys, in backend order.
// Missing and deferred keys are only reported through WithMissing and
// WithDeferred.
func (e *Environment) Get(ctx context.Context, keys []*Key, opts ...CallOption) ([]*Entity, error) {
	res, err := e.Lookup(ctx, keys, opts...)
	if err != nil {
		return nil, err
	}
	return res.Found, nil
}

// Lookup is Environment.Lookup on the default Environment.
func Lookup(ctx context.Context, keys []*Key, opts ...CallOption) (*LookupResult, error) {
	return defaultEnvironment.Lookup(ctx, keys, opts...)
}

// Get is Environment.Get on the default Environment.
func Get(ctx context.Context, keys []*Key, opts ...CallOption) ([]*Entity, error) {
	return defaultEnvironment.Get(ctx, keys, opts...)
}
