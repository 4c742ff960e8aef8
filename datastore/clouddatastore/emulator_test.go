package clouddatastore_test

import (
	"testing"

	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/internal/testutils"
)

func TestEmulator_AllocateAndLookup(t *testing.T) {
	ctx, conn, cleanUp := testutils.SetupCloudDatastore(t)
	defer cleanUp()

	env := datastore.NewEnvironment(conn.ProjectID(), conn)

	keys, err := env.AllocateIDs(ctx, datastore.IncompleteKey("", "Data", nil), 2)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(keys); v != 2 {
		t.Fatalf("unexpected: %v", v)
	}

	// nothing is stored under freshly allocated ids.
	var missing []*datastore.Key
	entities, err := env.Get(ctx, keys, datastore.WithMissing(&missing))
	if err != nil {
		t.Fatal(err)
	}
	if v := len(entities); v != 0 {
		t.Errorf("unexpected: %v", v)
	}
	if v := len(missing); v != 2 {
		t.Errorf("unexpected: %v", v)
	}
}
