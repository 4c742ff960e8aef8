package noop

import (
	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
)

var _ datastore.Middleware = &noop{}

// New no-op middleware creates and returns.
func New() datastore.Middleware {
	return &noop{}
}

type noop struct {
}

func (*noop) Lookup(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	return info.Next.Lookup(info, keys)
}

func (*noop) AllocateIDs(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	return info.Next.AllocateIDs(info, keys)
}
