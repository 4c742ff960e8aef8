package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSnapshotOwner is returned when a snapshot gets both or neither of
	// a subscription and a client.
	ErrSnapshotOwner = errors.New("pubsub: pass only one of subscription or client")

	// ErrNoSubscription is returned by Create for a snapshot without subscription.
	ErrNoSubscription = errors.New("pubsub: snapshot has no subscription")
)

// DeletedTopic is the topic reported for snapshots whose topic was deleted.
const DeletedTopic = "_deleted-topic_"

// Snapshot is a named snapshot. It belongs either to a subscription, or
// directly to a client when only its name is known.
type Snapshot struct {
	Name         string
	Subscription *Subscription

	client *Client
}

// NewSnapshot returns a Snapshot owned by exactly one of sub or client.
func NewSnapshot(name string, sub *Subscription, client *Client) (*Snapshot, error) {
	if (sub == nil) == (client == nil) {
		return nil, ErrSnapshotOwner
	}
	if client == nil {
		client = sub.client
	}
	return &Snapshot{Name: name, Subscription: sub, client: client}, nil
}

// Client returns the client the snapshot is bound to.
func (s *Snapshot) Client() *Client {
	return s.client
}

// Project returns the project id of the snapshot.
func (s *Snapshot) Project() string {
	return s.client.project
}

// FullName returns "projects/PROJECT/snapshots/NAME".
func (s *Snapshot) FullName() string {
	return "projects/" + s.client.project + "/snapshots/" + s.Name
}

// Path returns the URL path of the snapshot.
func (s *Snapshot) Path() string {
	return "/" + s.FullName()
}

// requireClient returns client, or the bound client when client is nil.
func (s *Snapshot) requireClient(client *Client) *Client {
	if client == nil {
		return s.client
	}
	return client
}

// Create creates the snapshot from the current state of its subscription.
// A nil client falls back to the bound one.
func (s *Snapshot) Create(ctx context.Context, client *Client) error {
	if s.Subscription == nil {
		return ErrNoSubscription
	}
	client = s.requireClient(client)

	_, err := client.client.Subscription(s.Subscription.Name).CreateSnapshot(ctx, s.Name)
	return err
}

// Delete deletes the snapshot. A nil client falls back to the bound one.
func (s *Snapshot) Delete(ctx context.Context, client *Client) error {
	client = s.requireClient(client)

	return client.client.Snapshot(s.Name).Delete(ctx)
}

// SnapshotResource is the API representation of a snapshot.
type SnapshotResource struct {
	// Name is "projects/PROJECT/snapshots/NAME".
	Name string
	// Subscription is "projects/PROJECT/subscriptions/NAME".
	Subscription string
	// Topic is "projects/PROJECT/topics/NAME" or DeletedTopic.
	Topic string
}

// SnapshotFromResource builds a Snapshot owned by the subscription the
// resource names. subscriptions maps subscription full names to known
// handles; a missing handle is created on client and added to it.
// subscriptions may be nil.
func SnapshotFromResource(res *SnapshotResource, client *Client, subscriptions map[string]*Subscription) (*Snapshot, error) {
	name, err := resourceName(res.Name, "snapshots")
	if err != nil {
		return nil, err
	}

	sub, ok := subscriptions[res.Subscription]
	if !ok {
		subName, err := resourceName(res.Subscription, "subscriptions")
		if err != nil {
			return nil, err
		}
		topic := res.Topic
		if topic == DeletedTopic {
			topic = ""
		}
		sub = client.Subscription(subName, topic)
		if subscriptions != nil {
			subscriptions[res.Subscription] = sub
		}
	}

	return NewSnapshot(name, sub, nil)
}

// resourceName returns NAME of "projects/PROJECT/<collection>/NAME".
func resourceName(path, collection string) (string, error) {
	parts := strings.Split(path, "/")
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != collection || parts[3] == "" {
		return "", fmt.Errorf("pubsub: malformed %s resource name %q", collection, path)
	}
	return parts[3], nil
}
