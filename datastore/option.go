package datastore

import (
	"net/http"

	"go.mercari.io/gcloud/internal"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
)

// ClientOption configures how a backend connection is created.
type ClientOption interface {
	Apply(*internal.ClientSettings)
}

// WithProjectID sets the project, which is also the default dataset id.
func WithProjectID(projectID string) ClientOption {
	return withProjectID{projectID}
}

type withProjectID struct{ s string }

func (w withProjectID) Apply(o *internal.ClientSettings) {
	o.ProjectID = w.s
}

// WithTokenSource returns a ClientOption that specifies an OAuth2 token
// source to be used as the basis for authentication.
func WithTokenSource(s oauth2.TokenSource) ClientOption {
	return withTokenSource{s}
}

type withTokenSource struct{ ts oauth2.TokenSource }

func (w withTokenSource) Apply(o *internal.ClientSettings) {
	o.TokenSource = w.ts
}

type withCredFile string

func (w withCredFile) Apply(o *internal.ClientSettings) {
	o.CredentialsFile = string(w)
}

// WithCredentialsFile returns a ClientOption that authenticates
// API calls with the given service account or refresh token JSON
// credentials file.
func WithCredentialsFile(filename string) ClientOption {
	return withCredFile(filename)
}

// WithScopes returns a ClientOption that overrides the default OAuth2 scopes
// to be used for a service.
func WithScopes(scope ...string) ClientOption {
	return withScopes(scope)
}

type withScopes []string

func (w withScopes) Apply(o *internal.ClientSettings) {
	s := make([]string, len(w))
	copy(s, w)
	o.Scopes = s
}

// WithHTTPClient returns a ClientOption that specifies the HTTP client to use
// as the basis of communications. Backends that only speak gRPC reject it.
func WithHTTPClient(client *http.Client) ClientOption {
	return withHTTPClient{client}
}

type withHTTPClient struct{ client *http.Client }

func (w withHTTPClient) Apply(o *internal.ClientSettings) {
	o.HTTPClient = w.client
}

// WithEndpoint overrides the service address.
func WithEndpoint(endpoint string) ClientOption {
	return withEndpoint(endpoint)
}

type withEndpoint string

func (w withEndpoint) Apply(o *internal.ClientSettings) {
	o.Endpoint = string(w)
}

// WithGRPCConn makes the backend use an existing gRPC connection.
// It takes precedence over the endpoint and authentication options.
func WithGRPCConn(conn *grpc.ClientConn) ClientOption {
	return withGRPCConn{conn}
}

type withGRPCConn struct{ conn *grpc.ClientConn }

func (w withGRPCConn) Apply(o *internal.ClientSettings) {
	o.GRPCConn = w.conn
}

// CallOption configures a single Get, Lookup or AllocateIDs call.
type CallOption interface {
	applyCall(*callSettings)
}

type callSettings struct {
	conn      Connection
	datasetID string
	missing   *[]*Key
	deferred  *[]*Key
}

func newCallSettings(opts []CallOption) *callSettings {
	s := &callSettings{}
	for _, opt := range opts {
		opt.applyCall(s)
	}
	return s
}

// WithConnection uses conn instead of the Environment's connection.
func WithConnection(conn Connection) CallOption {
	return withConnection{conn}
}

type withConnection struct{ conn Connection }

func (w withConnection) applyCall(s *callSettings) {
	s.conn = w.conn
}

// WithDatasetID names the dataset for keys that carry none.
// Keys that carry a different dataset id make the call fail with MixedDatasetError.
func WithDatasetID(datasetID string) CallOption {
	return withDatasetID(datasetID)
}

type withDatasetID string

func (w withDatasetID) applyCall(s *callSettings) {
	s.datasetID = string(w)
}

// WithMissing appends the keys the backend reported as missing to *dst.
func WithMissing(dst *[]*Key) CallOption {
	return withMissing{dst}
}

type withMissing struct{ dst *[]*Key }

func (w withMissing) applyCall(s *callSettings) {
	s.missing = w.dst
}

// WithDeferred appends the keys the backend deferred to *dst.
// Retrying them is up to the caller.
func WithDeferred(dst *[]*Key) CallOption {
	return withDeferred{dst}
}

type withDeferred struct{ dst *[]*Key }

func (w withDeferred) applyCall(s *callSettings) {
	s.deferred = w.dst
}
