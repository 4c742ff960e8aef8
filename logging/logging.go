// Package logging binds Cloud Logging loggers to a project.
package logging // import "go.mercari.io/gcloud/logging"

import (
	"context"
	"errors"

	"cloud.google.com/go/logging"
	"go.mercari.io/gcloud/internal"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/api/monitoredres"
)

// ErrNoProject is returned by NewClient when no project could be determined.
var ErrNoProject = errors.New("logging: no project configured")

// Client talks to Cloud Logging on behalf of one project.
type Client struct {
	project  string
	resource *monitoredres.MonitoredResource
	client   *logging.Client
}

// NewClient creates a Client. An empty project is detected from the
// environment, then from the GCE metadata server.
func NewClient(ctx context.Context, project string, opts ...option.ClientOption) (*Client, error) {
	if project == "" {
		project = internal.DetectProjectID()
	}
	if project == "" {
		return nil, ErrNoProject
	}

	client, err := logging.NewClient(ctx, "projects/"+project, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{project: project, client: client}, nil
}

// WithResource makes every Logger created afterwards report resource instead
// of the detected one.
func (c *Client) WithResource(resource *monitoredres.MonitoredResource) *Client {
	return &Client{project: c.project, resource: resource, client: c.client}
}

// Project returns the default project id.
func (c *Client) Project() string {
	return c.project
}

// Logger returns a Logger writing to the log name.
func (c *Client) Logger(name string) *Logger {
	var opts []logging.LoggerOption
	if c.resource != nil {
		opts = append(opts, logging.CommonResource(c.resource))
	}
	return &Logger{
		name:   name,
		client: c,
		l:      c.client.Logger(name, opts...),
	}
}

// Close flushes every Logger and releases the connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Logger writes entries to one log.
type Logger struct {
	name   string
	client *Client
	l      *logging.Logger
}

// Name returns the log name.
func (l *Logger) Name() string {
	return l.name
}

// Client returns the client the logger is bound to.
func (l *Logger) Client() *Client {
	return l.client
}

// Project returns the project id the logger writes to.
func (l *Logger) Project() string {
	return l.client.project
}

// FullName returns "projects/PROJECT/logs/NAME".
func (l *Logger) FullName() string {
	return "projects/" + l.client.project + "/logs/" + l.name
}

// Path returns the URL path of the log.
func (l *Logger) Path() string {
	return "/" + l.FullName()
}

// Log buffers an entry. It is sent in the background or on Flush.
func (l *Logger) Log(severity logging.Severity, payload interface{}) {
	l.l.Log(logging.Entry{Severity: severity, Payload: payload})
}

// LogSync sends an entry and waits for the result.
func (l *Logger) LogSync(ctx context.Context, severity logging.Severity, payload interface{}) error {
	return l.l.LogSync(ctx, logging.Entry{Severity: severity, Payload: payload})
}

// Flush blocks until buffered entries are sent.
func (l *Logger) Flush() error {
	return l.l.Flush()
}
