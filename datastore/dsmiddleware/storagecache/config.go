package storagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
)

// MaxKeyLength is the longest key CacheKey produces. It is the memcached limit.
const MaxKeyLength = 250

// ErrKeyMismatch is returned by Verify when a stored entity belongs to another key.
var ErrKeyMismatch = errors.New("dsmiddleware/storagecache: stored entity has another key")

// Config is what a Storage backend and its middleware are built from.
type Config struct {
	Filters    []KeyFilter
	Logf       func(ctx context.Context, format string, args ...interface{})
	Expiration time.Duration
	CacheKey   func(key *datastore.Key) string
}

// NewConfig returns a Config with opts applied over the backend defaults.
// Unless replaced by WithCacheKey, cache keys are CacheKey(prefix, key).
func NewConfig(prefix string, expiration time.Duration, opts ...Option) *Config {
	cfg := &Config{Expiration: expiration}
	for _, opt := range opts {
		opt.Apply(cfg)
	}

	if cfg.Logf == nil {
		cfg.Logf = func(ctx context.Context, format string, args ...interface{}) {}
	}
	if cfg.CacheKey == nil {
		cfg.CacheKey = func(key *datastore.Key) string {
			return CacheKey(prefix, key)
		}
	}

	return cfg
}

// CacheKey returns prefix followed by the encoded key. When that exceeds
// MaxKeyLength the encoded key is replaced by its hex SHA-256 digest.
func CacheKey(prefix string, key *datastore.Key) string {
	encoded := key.Encode()
	if len(prefix)+len(encoded) <= MaxKeyLength {
		return prefix + encoded
	}
	sum := sha256.Sum256([]byte(encoded))
	return prefix + "sha256:" + hex.EncodeToString(sum[:])
}

// Verify checks that entity was stored for key.
// Distinct keys may share a cache key through hashing or WithCacheKey.
func Verify(key *datastore.Key, entity *datastorepb.Entity) error {
	stored, err := datastore.KeyFromProto(entity.GetKey())
	if err != nil {
		return err
	}
	if !stored.Equal(key) {
		return ErrKeyMismatch
	}
	return nil
}
