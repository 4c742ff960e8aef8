package clouddatastore

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/MakeNowJust/heredoc/v2"
	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/datastore/dsmiddleware/dslog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestConnection(t *testing.T, srv *fakeServer) *Connection {
	t.Helper()

	t.Setenv("DATASTORE_EMULATOR_HOST", "")
	t.Setenv("DATASTORE_PROJECT_ID", "test-project")

	ctx := context.Background()
	conn, err := FromContext(ctx, datastore.WithGRPCConn(serveFake(t, srv)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestConnection_ProjectID(t *testing.T) {
	conn := newTestConnection(t, newFakeServer())
	if v := conn.ProjectID(); v != "test-project" {
		t.Errorf("unexpected: %v", v)
	}

	settings := newClientSettings(datastore.WithProjectID("explicit"))
	if v := settings.ProjectID; v != "explicit" {
		t.Errorf("unexpected: %v", v)
	}
}

func TestConnection_Get(t *testing.T) {
	ctx := context.Background()

	srv := newFakeServer()
	conn := newTestConnection(t, srv)
	env := datastore.NewEnvironment(conn.ProjectID(), conn)

	key := datastore.IDKey("", "Data", 111, nil)
	srv.put(&datastorepb.Entity{
		Key: key.WithDatasetID("test-project").Proto(),
		Properties: map[string]*datastorepb.Value{
			"Name": {ValueType: &datastorepb.Value_StringValue{StringValue: "Data"}},
		},
	})

	var missing []*datastore.Key
	entities, err := env.Get(ctx, []*datastore.Key{key, datastore.IDKey("", "Data", 222, nil)}, datastore.WithMissing(&missing))
	if err != nil {
		t.Fatal(err)
	}
	if v := len(entities); v != 1 {
		t.Fatalf("unexpected: %v", v)
	}
	if v := entities[0].Map()["Name"]; v != "Data" {
		t.Errorf("unexpected: %v", v)
	}
	if v := len(missing); v != 1 {
		t.Fatalf("unexpected: %v", v)
	}
	if v := missing[0].ID(); v != 222 {
		t.Errorf("unexpected: %v", v)
	}

	if v := len(srv.lookupReqs); v != 1 {
		t.Fatalf("unexpected: %v", v)
	}
	if v := srv.lookupReqs[0].GetProjectId(); v != "test-project" {
		t.Errorf("unexpected: %v", v)
	}
}

func TestConnection_AllocateIDs(t *testing.T) {
	ctx := context.Background()

	srv := newFakeServer()
	conn := newTestConnection(t, srv)
	env := datastore.NewEnvironment(conn.ProjectID(), conn)

	keys, err := env.AllocateIDs(ctx, datastore.IncompleteKey("", "Data", nil), 3)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(keys); v != 3 {
		t.Fatalf("unexpected: %v", v)
	}
	for idx, key := range keys {
		if v := key.ID(); v != int64(idx+1) {
			t.Errorf("unexpected: %v", v)
		}
		if v := key.DatasetID(); v != "test-project" {
			t.Errorf("unexpected: %v", v)
		}
	}
}

func TestConnection_BackendError(t *testing.T) {
	ctx := context.Background()

	srv := newFakeServer()
	srv.err = status.Error(codes.PermissionDenied, "denied")
	conn := newTestConnection(t, srv)
	env := datastore.NewEnvironment(conn.ProjectID(), conn)

	_, err := env.Get(ctx, []*datastore.Key{datastore.IDKey("", "Data", 111, nil)})
	if v := status.Code(err); v != codes.PermissionDenied {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestConnection_Middleware(t *testing.T) {
	ctx := context.Background()

	var logs []string
	logf := func(ctx context.Context, format string, args ...interface{}) {
		t.Logf(format, args...)
		logs = append(logs, fmt.Sprintf(format, args...))
	}

	srv := newFakeServer()
	conn := newTestConnection(t, srv)
	env := datastore.NewEnvironment(conn.ProjectID(), conn)

	logger := dslog.NewLogger("log: ", logf)
	conn.AppendMiddleware(logger)

	_, err := env.Get(ctx, []*datastore.Key{datastore.IDKey("", "Data", 111, nil)})
	if err != nil {
		t.Fatal(err)
	}

	if !conn.RemoveMiddleware(logger) {
		t.Fatal("unexpected: not removed")
	}
	_, err = env.Get(ctx, []*datastore.Key{datastore.IDKey("", "Data", 111, nil)})
	if err != nil {
		t.Fatal(err)
	}

	expected := heredoc.Doc(`
		log: Lookup #1, dataset=test-project, len(keys)=1, keys=[/Data,111]
		log: Lookup #1, len(found)=0, len(missing)=1, len(deferred)=0
	`)
	if v := strings.Join(logs, "\n") + "\n"; v != expected {
		t.Errorf("unexpected: %v", v)
	}
}

func TestFromContext_Emulator(t *testing.T) {
	ctx := context.Background()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := newFakeServer()
	s := grpc.NewServer()
	datastorepb.RegisterDatastoreServer(s, srv)
	go func() {
		_ = s.Serve(lis)
	}()
	defer s.Stop()

	t.Setenv("DATASTORE_EMULATOR_HOST", lis.Addr().String())
	t.Setenv("DATASTORE_PROJECT_ID", "emulator-project")

	env, err := NewEnvironment(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer env.Connection().(*Connection).Close()

	if v := env.DatasetID(); v != "emulator-project" {
		t.Errorf("unexpected: %v", v)
	}

	keys, err := env.AllocateIDs(ctx, datastore.IncompleteKey("", "Data", nil), 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := len(keys); v != 1 {
		t.Fatalf("unexpected: %v", v)
	}
	if v := len(srv.allocateReqs); v != 1 {
		t.Errorf("unexpected: %v", v)
	}
}

func TestSetupDefaultEnvironment(t *testing.T) {
	ctx := context.Background()

	restore := datastore.DefaultEnvironment().Swap("", nil)
	defer restore()

	t.Setenv("DATASTORE_EMULATOR_HOST", "")
	t.Setenv("DATASTORE_PROJECT_ID", "default-project")

	srv := newFakeServer()
	conn, err := SetupDefaultEnvironment(ctx, datastore.WithGRPCConn(serveFake(t, srv)))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, err = datastore.Get(ctx, []*datastore.Key{datastore.IDKey("", "Data", 1, nil)})
	if err != nil {
		t.Fatal(err)
	}
	if v := srv.lookupReqs[0].GetProjectId(); v != "default-project" {
		t.Errorf("unexpected: %v", v)
	}
}

func TestFromContext_HTTPClient(t *testing.T) {
	_, err := FromContext(context.Background(), datastore.WithProjectID("test-project"), datastore.WithHTTPClient(http.DefaultClient))
	if err != ErrHTTPClient {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestConnection_CloseKeepsPassedConn(t *testing.T) {
	ctx := context.Background()

	t.Setenv("DATASTORE_EMULATOR_HOST", "")

	srv := newFakeServer()
	grpcConn := serveFake(t, srv)

	conn, err := FromContext(ctx, datastore.WithProjectID("test-project"), datastore.WithGRPCConn(grpcConn))
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}

	// the passed connection is still usable.
	conn, err = FromContext(ctx, datastore.WithProjectID("test-project"), datastore.WithGRPCConn(grpcConn))
	if err != nil {
		t.Fatal(err)
	}
	env := datastore.NewEnvironment(conn.ProjectID(), conn)
	if _, err := env.Get(ctx, []*datastore.Key{datastore.IDKey("", "Data", 1, nil)}); err != nil {
		t.Fatal(err)
	}
	if v := len(srv.lookupReqs); v != 1 {
		t.Errorf("unexpected: %v", v)
	}
}
