package storagecache

import (
	"context"
	"time"

	"go.mercari.io/gcloud/datastore"
)

// IncludeKinds returns a KeyFilter that accepts only the given kinds.
func IncludeKinds(kinds ...string) KeyFilter {
	return func(ctx context.Context, key *datastore.Key) bool {
		for _, incKind := range kinds {
			if key.Kind() == incKind {
				return true
			}
		}

		return false
	}
}

// ExcludeKinds returns a KeyFilter that rejects the given kinds.
func ExcludeKinds(kinds ...string) KeyFilter {
	return func(ctx context.Context, key *datastore.Key) bool {
		for _, excKind := range kinds {
			if key.Kind() == excKind {
				return false
			}
		}

		return true
	}
}

// An Option configures a cache backend.
type Option interface {
	Apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) Apply(cfg *Config) { f(cfg) }

// WithIncludeKinds caches only the given kinds.
func WithIncludeKinds(kinds ...string) Option {
	return WithKeyFilter(IncludeKinds(kinds...))
}

// WithExcludeKinds never caches the given kinds.
func WithExcludeKinds(kinds ...string) Option {
	return WithKeyFilter(ExcludeKinds(kinds...))
}

// WithKeyFilter adds f to the filters. A key is cached only when every filter accepts it.
func WithKeyFilter(f KeyFilter) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Filters = append(cfg.Filters, f)
	})
}

// WithLogger sets the function receiving debug log lines.
func WithLogger(logf func(ctx context.Context, format string, args ...interface{})) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Logf = logf
	})
}

// WithExpireDuration sets how long entries live. Zero or less keeps them
// until evicted.
func WithExpireDuration(d time.Duration) Option {
	return optionFunc(func(cfg *Config) {
		cfg.Expiration = d
	})
}

// WithCacheKey replaces the mapping from a datastore key to a cache key.
func WithCacheKey(f func(key *datastore.Key) string) Option {
	return optionFunc(func(cfg *Config) {
		cfg.CacheKey = f
	})
}
