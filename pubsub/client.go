// Package pubsub names Cloud Pub/Sub subscriptions and manages their snapshots.
package pubsub // import "go.mercari.io/gcloud/pubsub"

import (
	"context"
	"errors"

	"cloud.google.com/go/pubsub"
	"go.mercari.io/gcloud/internal"
	"google.golang.org/api/option"
)

// ErrNoProject is returned by NewClient when no project could be determined.
var ErrNoProject = errors.New("pubsub: no project configured")

// Client holds the project and connection shared by subscriptions and
// snapshots.
type Client struct {
	project string
	client  *pubsub.Client
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

	client, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{project: project, client: client}, nil
}

// Project returns the default project id.
func (c *Client) Project() string {
	return c.project
}

// PubSub returns the underlying Cloud Pub/Sub client.
func (c *Client) PubSub() *pubsub.Client {
	return c.client
}

// Close closes the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Subscription returns a handle for the named subscription. topic is the
// full topic name, or empty when the topic is unknown or deleted.
func (c *Client) Subscription(name, topic string) *Subscription {
	return &Subscription{Name: name, Topic: topic, client: c}
}

// Subscription is a named subscription of a Client's project.
type Subscription struct {
	Name  string
	Topic string

	client *Client
}

// Client returns the client the subscription is bound to.
func (s *Subscription) Client() *Client {
	return s.client
}

// Project returns the project id of the subscription.
func (s *Subscription) Project() string {
	return s.client.project
}

// FullName returns "projects/PROJECT/subscriptions/NAME".
func (s *Subscription) FullName() string {
	return "projects/" + s.client.project + "/subscriptions/" + s.Name
}

// Path returns the URL path of the subscription.
func (s *Subscription) Path() string {
	return "/" + s.FullName()
}
