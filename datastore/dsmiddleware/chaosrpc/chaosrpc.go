package chaosrpc

import (
	"errors"
	"math/rand"
	"sync"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
)

// ErrChaos is returned in place of the real RPC result.
var ErrChaos = errors.New("error from chaosrpc!!")

var _ datastore.Middleware = &chaosHandler{}

// New returns a middleware that fails about one RPC in five.
func New(s rand.Source) datastore.Middleware {
	return &chaosHandler{
		r: rand.New(s),
	}
}

type chaosHandler struct {
	m sync.Mutex
	r *rand.Rand
}

func (ch *chaosHandler) raiseError() error {
	ch.m.Lock()
	defer ch.m.Unlock()

	// Make an error with a 20% rate
	if ch.r.Intn(5) == 0 {
		return ErrChaos
	}

	return nil
}

func (ch *chaosHandler) Lookup(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	if err := ch.raiseError(); err != nil {
		return nil, err
	}

	return info.Next.Lookup(info, keys)
}

func (ch *chaosHandler) AllocateIDs(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	if err := ch.raiseError(); err != nil {
		return nil, err
	}

	return info.Next.AllocateIDs(info, keys)
}
