package clouddatastore

import (
	"context"
	"net"
	"sync"
	"testing"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

// fakeServer answers Lookup and AllocateIds from memory.
type fakeServer struct {
	datastorepb.UnimplementedDatastoreServer

	m        sync.Mutex
	entities map[string]*datastorepb.Entity
	lastID   int64
	err      error

	lookupReqs   []*datastorepb.LookupRequest
	allocateReqs []*datastorepb.AllocateIdsRequest
}

func newFakeServer() *fakeServer {
	return &fakeServer{entities: make(map[string]*datastorepb.Entity)}
}

func fakeKey(pKey *datastorepb.Key) string {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(pKey)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (s *fakeServer) put(e *datastorepb.Entity) {
	s.m.Lock()
	defer s.m.Unlock()

	s.entities[fakeKey(e.GetKey())] = e
}

func (s *fakeServer) Lookup(ctx context.Context, req *datastorepb.LookupRequest) (*datastorepb.LookupResponse, error) {
	s.m.Lock()
	defer s.m.Unlock()

	s.lookupReqs = append(s.lookupReqs, req)
	if s.err != nil {
		return nil, s.err
	}

	resp := &datastorepb.LookupResponse{}
	for _, pKey := range req.GetKeys() {
		if e, ok := s.entities[fakeKey(pKey)]; ok {
			resp.Found = append(resp.Found, &datastorepb.EntityResult{Entity: e})
			continue
		}
		resp.Missing = append(resp.Missing, &datastorepb.EntityResult{Entity: &datastorepb.Entity{Key: pKey}})
	}
	return resp, nil
}

func (s *fakeServer) AllocateIds(ctx context.Context, req *datastorepb.AllocateIdsRequest) (*datastorepb.AllocateIdsResponse, error) {
	s.m.Lock()
	defer s.m.Unlock()

	s.allocateReqs = append(s.allocateReqs, req)
	if s.err != nil {
		return nil, s.err
	}

	resp := &datastorepb.AllocateIdsResponse{}
	for _, pKey := range req.GetKeys() {
		s.lastID++
		completed := proto.Clone(pKey).(*datastorepb.Key)
		completed.Path[len(completed.Path)-1].IdType = &datastorepb.Key_PathElement_Id{Id: s.lastID}
		resp.Keys = append(resp.Keys, completed)
	}
	return resp, nil
}

// serveFake starts srv on an in-memory listener and returns a client
// connection to it.
func serveFake(t *testing.T, srv *fakeServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	datastorepb.RegisterDatastoreServer(s, srv)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}
