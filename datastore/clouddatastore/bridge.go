package clouddatastore

import (
	"context"
	"errors"
	"os"

	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/internal"
	"google.golang.org/api/option"
	gtransport "google.golang.org/api/transport/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newClientSettings(opts ...datastore.ClientOption) *internal.ClientSettings {
	settings := &internal.ClientSettings{
		ProjectID: internal.DetectProjectID(),
	}
	for _, opt := range opts {
		opt.Apply(settings)
	}
	return settings
}

// ErrHTTPClient is returned by FromContext when WithHTTPClient is given.
// The Datastore API is only served over gRPC.
var ErrHTTPClient = errors.New("clouddatastore: WithHTTPClient is not supported, use WithGRPCConn")

const (
	prodAddr       = "datastore.googleapis.com:443"
	scopeDatastore = "https://www.googleapis.com/auth/datastore"
)

// FromContext dials Cloud Datastore and returns a Connection.
// When DATASTORE_EMULATOR_HOST is set and neither an endpoint nor a gRPC
// connection is given, the emulator is used without authentication.
// A connection passed by WithGRPCConn is not closed by Connection.Close.
func FromContext(ctx context.Context, opts ...datastore.ClientOption) (*Connection, error) {
	settings := newClientSettings(opts...)
	if settings.HTTPClient != nil {
		return nil, ErrHTTPClient
	}
	if settings.GRPCConn != nil {
		return newConnection(settings.ProjectID, settings.GRPCConn, false), nil
	}

	origOpts := []option.ClientOption{
		option.WithEndpoint(prodAddr),
		option.WithScopes(scopeDatastore),
	}
	if host := os.Getenv("DATASTORE_EMULATOR_HOST"); host != "" && settings.Endpoint == "" {
		origOpts = []option.ClientOption{
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		}
	} else {
		if len(settings.Scopes) != 0 {
			origOpts = append(origOpts, option.WithScopes(settings.Scopes...))
		}
		if settings.TokenSource != nil {
			origOpts = append(origOpts, option.WithTokenSource(settings.TokenSource))
		}
		if settings.CredentialsFile != "" {
			origOpts = append(origOpts, option.WithCredentialsFile(settings.CredentialsFile))
		}
		if settings.Endpoint != "" {
			origOpts = append(origOpts, option.WithEndpoint(settings.Endpoint))
		}
	}

	conn, err := gtransport.Dial(ctx, origOpts...)
	if err != nil {
		return nil, err
	}

	return newConnection(settings.ProjectID, conn, true), nil
}

// NewEnvironment returns an Environment bound to a new Connection and its
// project id. Close the connection through env.Connection() when done.
func NewEnvironment(ctx context.Context, opts ...datastore.ClientOption) (*datastore.Environment, error) {
	conn, err := FromContext(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return datastore.NewEnvironment(conn.ProjectID(), conn), nil
}

// SetupDefaultEnvironment configures datastore.DefaultEnvironment with a new
// Connection and returns it for closing.
func SetupDefaultEnvironment(ctx context.Context, opts ...datastore.ClientOption) (*Connection, error) {
	conn, err := FromContext(ctx, opts...)
	if err != nil {
		return nil, err
	}
	datastore.SetDefaultDatasetID(conn.ProjectID())
	datastore.SetDefaultConnection(conn)
	return conn, nil
}
