package shared

import (
	"sync"

	"go.mercari.io/gcloud/datastore"
)

// MiddlewareHolder keeps the middlewares of a connection.
// The zero value is ready to use.
type MiddlewareHolder struct {
	m   sync.RWMutex
	mws []datastore.Middleware
}

// AppendMiddleware adds mw to the end of the chain. First-In First-Apply.
func (h *MiddlewareHolder) AppendMiddleware(mw datastore.Middleware) {
	h.m.Lock()
	defer h.m.Unlock()

	h.mws = append(h.mws, mw)
}

// RemoveMiddleware removes mw and reports whether it was in the chain.
func (h *MiddlewareHolder) RemoveMiddleware(mw datastore.Middleware) bool {
	h.m.Lock()
	defer h.m.Unlock()

	list := make([]datastore.Middleware, 0, len(h.mws))
	found := false
	for _, old := range h.mws {
		if old == mw {
			found = true
			continue
		}
		list = append(list, old)
	}
	h.mws = list

	return found
}

// Middlewares returns a snapshot of the current chain.
func (h *MiddlewareHolder) Middlewares() []datastore.Middleware {
	h.m.RLock()
	defer h.m.RUnlock()

	list := make([]datastore.Middleware, len(h.mws))
	copy(list, h.mws)
	return list
}
