package clouddatastore

import (
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/internal/shared"
	"google.golang.org/grpc"
)

var _ datastore.Connection = (*Connection)(nil)

// Connection sends lookups and id allocations to Cloud Datastore through
// its middlewares.
type Connection struct {
	shared.MiddlewareHolder

	projectID string
	conn      *grpc.ClientConn
	ownsConn  bool
	client    datastorepb.DatastoreClient
}

func newConnection(projectID string, conn *grpc.ClientConn, ownsConn bool) *Connection {
	return &Connection{
		projectID: projectID,
		conn:      conn,
		ownsConn:  ownsConn,
		client:    datastorepb.NewDatastoreClient(conn),
	}
}

// ProjectID returns the project the connection was configured for.
// It may be empty when none could be detected.
func (c *Connection) ProjectID() string {
	return c.projectID
}

// Lookup runs the middleware chain and then the Lookup RPC.
func (c *Connection) Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	cb := shared.NewMiddlewareBridge(&datastore.MiddlewareInfo{
		Context:   ctx,
		DatasetID: datasetID,
	}, &originalConnectionBridgeImpl{c.client}, c.Middlewares())

	return cb.Lookup(cb.Info, keys)
}

// AllocateIDs runs the middleware chain and then the AllocateIds RPC.
func (c *Connection) AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	cb := shared.NewMiddlewareBridge(&datastore.MiddlewareInfo{
		Context:   ctx,
		DatasetID: datasetID,
	}, &originalConnectionBridgeImpl{c.client}, c.Middlewares())

	return cb.AllocateIDs(cb.Info, keys)
}

// Close closes the gRPC connection dialed by FromContext.
func (c *Connection) Close() error {
	if !c.ownsConn {
		return nil
	}
	return c.conn.Close()
}

var _ shared.OriginalConnectionBridge = &originalConnectionBridgeImpl{}

type originalConnectionBridgeImpl struct {
	client datastorepb.DatastoreClient
}

func (ocb *originalConnectionBridgeImpl) Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	return ocb.client.Lookup(ctx, &datastorepb.LookupRequest{
		ProjectId: datasetID,
		Keys:      keys,
	})
}

func (ocb *originalConnectionBridgeImpl) AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	resp, err := ocb.client.AllocateIds(ctx, &datastorepb.AllocateIdsRequest{
		ProjectId: datasetID,
		Keys:      keys,
	})
	if err != nil {
		return nil, err
	}
	return resp.GetKeys(), nil
}
