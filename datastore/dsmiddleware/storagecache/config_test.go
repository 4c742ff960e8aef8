package storagecache

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mercari.io/gcloud/datastore"
)

func TestCacheKey(t *testing.T) {
	short := datastore.IDKey("DATASET", "Data", 1, nil)
	if v := CacheKey("p:", short); v != "p:"+short.Encode() {
		t.Errorf("unexpected: %v", v)
	}

	long := datastore.NameKey("DATASET", "Data", strings.Repeat("a", 300), nil)
	v := CacheKey("p:", long)
	if len(v) > MaxKeyLength {
		t.Errorf("unexpected: %v", len(v))
	}
	if !strings.HasPrefix(v, "p:sha256:") {
		t.Errorf("unexpected: %v", v)
	}

	other := datastore.NameKey("DATASET", "Data", strings.Repeat("b", 300), nil)
	if CacheKey("p:", other) == v {
		t.Errorf("unexpected: same cache key for %v and %v", long, other)
	}
}

func TestNewConfig(t *testing.T) {
	key := datastore.IDKey("DATASET", "Data", 1, nil)

	cfg := NewConfig("p:", time.Minute)
	if v := cfg.Expiration; v != time.Minute {
		t.Errorf("unexpected: %v", v)
	}
	if v := cfg.CacheKey(key); v != CacheKey("p:", key) {
		t.Errorf("unexpected: %v", v)
	}
	cfg.Logf(context.Background(), "no-op")

	cfg = NewConfig("p:", time.Minute,
		WithExpireDuration(0),
		WithCacheKey(func(key *datastore.Key) string { return "custom" }),
		WithIncludeKinds("Data"),
		WithExcludeKinds("Other"),
	)
	if v := cfg.Expiration; v != 0 {
		t.Errorf("unexpected: %v", v)
	}
	if v := cfg.CacheKey(key); v != "custom" {
		t.Errorf("unexpected: %v", v)
	}
	if v := len(cfg.Filters); v != 2 {
		t.Errorf("unexpected: %v", v)
	}
}

func TestVerify(t *testing.T) {
	keyA := datastore.IDKey("DATASET", "Data", 1, nil)
	keyB := datastore.IDKey("DATASET", "Data", 2, nil)
	entity := (&datastore.Entity{Key: keyA}).Proto()

	if err := Verify(keyA, entity); err != nil {
		t.Fatal(err)
	}
	if err := Verify(keyB, entity); err != ErrKeyMismatch {
		t.Fatalf("unexpected: %v", err)
	}
	entity.Key = nil
	if err := Verify(keyA, entity); err == nil {
		t.Fatal("unexpected: nil error")
	}
}
