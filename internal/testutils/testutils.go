package testutils

import (
	"context"
	"os"
	"testing"

	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/datastore/clouddatastore"
)

// SetupCloudDatastore connects to the Cloud Datastore emulator.
// The test is skipped when DATASTORE_EMULATOR_HOST is not set.
func SetupCloudDatastore(t *testing.T) (context.Context, *clouddatastore.Connection, func()) {
	t.Helper()

	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST is not set")
	}

	ctx := context.Background()
	conn, err := clouddatastore.FromContext(ctx, datastore.WithProjectID("datastore-wrapper"))
	if err != nil {
		t.Fatal(err)
	}

	return ctx, conn, func() {
		if err := conn.Close(); err != nil {
			t.Error(err)
		}
	}
}
