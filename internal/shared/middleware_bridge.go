package shared

import (
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
)

var _ datastore.Middleware = &MiddlewareBridge{}

// MiddlewareBridge walks mws first-in first-apply and hands the request to
// the original connection at the end of the chain.
type MiddlewareBridge struct {
	occ  OriginalConnectionBridge
	mws  []datastore.Middleware
	Info *datastore.MiddlewareInfo
}

// OriginalConnectionBridge is the raw transport behind the middleware chain.
type OriginalConnectionBridge interface {
	Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error)
	AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error)
}

// NewMiddlewareBridge returns a bridge that runs mws in order and then occ.
func NewMiddlewareBridge(info *datastore.MiddlewareInfo, occ OriginalConnectionBridge, mws []datastore.Middleware) *MiddlewareBridge {
	cb := &MiddlewareBridge{
		occ:  occ,
		mws:  mws,
		Info: info,
	}
	cb.Info.Next = cb
	return cb
}

func (cb *MiddlewareBridge) Lookup(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	if len(cb.mws) == 0 {
		return cb.occ.Lookup(info.Context, info.DatasetID, keys)
	}

	current := cb.mws[0]
	left := &MiddlewareBridge{
		occ:  cb.occ,
		mws:  cb.mws[1:],
		Info: cb.Info,
	}
	left.Info.Next = left

	return current.Lookup(left.Info, keys)
}

func (cb *MiddlewareBridge) AllocateIDs(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	if len(cb.mws) == 0 {
		return cb.occ.AllocateIDs(info.Context, info.DatasetID, keys)
	}

	current := cb.mws[0]
	left := &MiddlewareBridge{
		occ:  cb.occ,
		mws:  cb.mws[1:],
		Info: cb.Info,
	}
	left.Info.Next = left

	return current.AllocateIDs(left.Info, keys)
}
