package storagecache

import (
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
)

var _ datastore.Middleware = &cacheHandler{}

// New returns a read-through cache middleware over s.
// Only found entities of complete keys are cached. Missing and deferred
// results always come from the next layer. cfg may be nil.
func New(s Storage, cfg *Config) datastore.Middleware {
	ch := &cacheHandler{
		s: s,
	}
	if cfg != nil {
		ch.logf = cfg.Logf
		ch.filters = cfg.Filters
	}

	if ch.logf == nil {
		ch.logf = func(ctx context.Context, format string, args ...interface{}) {}
	}

	return ch
}

// Storage keeps entities by key. Keys given to it are always complete.
type Storage interface {
	SetMulti(ctx context.Context, is []*CacheItem) error
	// GetMulti returns slice of CacheItem of the same length as Keys of the argument.
	// If not in the cache, the value of the corresponding element is nil.
	GetMulti(ctx context.Context, keys []*datastore.Key) ([]*CacheItem, error)
	DeleteMulti(ctx context.Context, keys []*datastore.Key) error
}

// KeyFilter reports whether key may be cached.
type KeyFilter func(ctx context.Context, key *datastore.Key) bool

// CacheItem is an entity as stored under its key.
type CacheItem struct {
	Key    *datastore.Key
	Entity *datastorepb.Entity
}

type cacheHandler struct {
	s       Storage
	logf    func(ctx context.Context, format string, args ...interface{})
	filters []KeyFilter
}

func (ch *cacheHandler) target(ctx context.Context, key *datastore.Key) bool {
	if key.Incomplete() {
		return false
	}
	for _, f := range ch.filters {
		// If false comes back even once, it is not cached
		if !f(ctx, key) {
			return false
		}
	}

	return true
}

func (ch *cacheHandler) AllocateIDs(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	return info.Next.AllocateIDs(info, keys)
}

func (ch *cacheHandler) Lookup(info *datastore.MiddlewareInfo, pKeys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	// strategy summary
	//   When we have a cache, don't ask the next layer for it.
	//   When we don't have a cache, passes the key to the next layer
	//   and caches what was found.

	// 1. pick up the keys the cache may answer
	// 2. ask the storage for them
	// 3. ask the next layer for everything else, then store the found entities

	keys := make([]*datastore.Key, len(pKeys))
	for idx, pKey := range pKeys {
		key, err := datastore.KeyFromProto(pKey)
		if err != nil {
			// let the backend report it.
			return info.Next.Lookup(info, pKeys)
		}
		keys[idx] = key
	}

	var cached []*datastorepb.EntityResult
	hit := make([]bool, len(keys))

	{ // step 1 & 2
		filteredIdxList := make([]int, 0, len(keys))
		filteredKey := make([]*datastore.Key, 0, len(keys))
		for idx, key := range keys {
			if ch.target(info.Context, key) {
				filteredIdxList = append(filteredIdxList, idx)
				filteredKey = append(filteredKey, key)
			}
		}

		if len(filteredKey) != 0 {
			cis, err := ch.s.GetMulti(info.Context, filteredKey)
			if err != nil {
				ch.logf(info.Context, "dsmiddleware/storagecache.Lookup: error on storage.GetMulti err=%s", err.Error())

				return info.Next.Lookup(info, pKeys)
			}

			for idx, ci := range cis {
				if ci == nil || ci.Entity == nil {
					continue
				}
				baseIdx := filteredIdxList[idx]
				hit[baseIdx] = true
				cached = append(cached, &datastorepb.EntityResult{Entity: ci.Entity})
			}
		}
	}

	// step 3
	missIdxList := make([]int, 0, len(keys))
	missKeys := make([]*datastorepb.Key, 0, len(keys))
	for idx, pKey := range pKeys {
		if !hit[idx] {
			missIdxList = append(missIdxList, idx)
			missKeys = append(missKeys, pKey)
		}
	}

	if len(missKeys) == 0 {
		return &datastorepb.LookupResponse{Found: cached}, nil
	}

	resp, err := info.Next.Lookup(info, missKeys)
	if err != nil {
		return nil, err
	}

	cis := make([]*CacheItem, 0, len(resp.GetFound()))
	for _, er := range resp.GetFound() {
		key, err := datastore.KeyFromProto(er.GetEntity().GetKey())
		if err != nil {
			continue
		}
		if !ch.target(info.Context, key) {
			continue
		}
		cis = append(cis, &CacheItem{
			Key:    key,
			Entity: er.GetEntity(),
		})
	}
	if len(cis) != 0 {
		err := ch.s.SetMulti(info.Context, cis)
		if err != nil {
			ch.logf(info.Context, "dsmiddleware/storagecache.Lookup: error on storage.SetMulti err=%s", err.Error())
		}
	}

	if len(cached) != 0 {
		resp.Found = append(cached, resp.Found...)
	}

	return resp, nil
}
