package noop

import (
	"context"
	"testing"

	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/internal/testutils"
)

func TestNoop_PassThrough(t *testing.T) {
	ctx := context.Background()

	conn := testutils.NewMemoryConnection()
	conn.AppendMiddleware(New())

	key := datastore.IDKey("DATASET", "Data", 111, nil)
	conn.Put(&datastore.Entity{Key: key})

	entities, err := datastore.NewEnvironment("DATASET", conn).Get(ctx, []*datastore.Key{key})
	if err != nil {
		t.Fatal(err)
	}
	if v := len(entities); v != 1 {
		t.Fatalf("unexpected: %v", v)
	}

	keys, err := datastore.NewEnvironment("DATASET", conn).AllocateIDs(ctx, datastore.IncompleteKey("", "Data", nil), 2)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(keys); v != 2 {
		t.Fatalf("unexpected: %v", v)
	}
	if v := conn.LookupCalls + conn.AllocateCalls; v != 2 {
		t.Errorf("unexpected: %v", v)
	}
}
