package datastore

import (
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"google.golang.org/protobuf/proto"
)

var _ Connection = (*stubConnection)(nil)

// stubConnection returns canned lookup results and records every call.
type stubConnection struct {
	found    []*datastorepb.Entity
	missing  []*datastorepb.Entity
	deferred []*datastorepb.Key
	err      error

	// allocIDs are handed out by AllocateIDs, one per key.
	// When empty, the n-th key gets id n+1.
	allocIDs []int64

	lookupCalls     int
	allocateCalls   int
	calledDatasetID string
	calledKeys      []*datastorepb.Key
}

func (c *stubConnection) Lookup(ctx context.Context, datasetID string, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	c.lookupCalls++
	c.calledDatasetID = datasetID
	c.calledKeys = keys

	if c.err != nil {
		return nil, c.err
	}

	resp := &datastorepb.LookupResponse{Deferred: c.deferred}
	for _, e := range c.found {
		resp.Found = append(resp.Found, &datastorepb.EntityResult{Entity: e})
	}
	for _, e := range c.missing {
		resp.Missing = append(resp.Missing, &datastorepb.EntityResult{Entity: e})
	}
	return resp, nil
}

func (c *stubConnection) AllocateIDs(ctx context.Context, datasetID string, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	c.allocateCalls++
	c.calledDatasetID = datasetID
	c.calledKeys = keys

	if c.err != nil {
		return nil, c.err
	}

	resp := make([]*datastorepb.Key, 0, len(keys))
	for idx, key := range keys {
		id := int64(idx + 1)
		if idx < len(c.allocIDs) {
			id = c.allocIDs[idx]
		}
		completed := proto.Clone(key).(*datastorepb.Key)
		completed.Path[len(completed.Path)-1].IdType = &datastorepb.Key_PathElement_Id{Id: id}
		resp = append(resp, completed)
	}
	return resp, nil
}

// makeEntityProto builds a wire entity with an integer id and, when
// name is non-empty, a single string property.
func makeEntityProto(datasetID, kind string, id int64, name, strVal string) *datastorepb.Entity {
	e := &datastorepb.Entity{
		Key: &datastorepb.Key{
			PartitionId: &datastorepb.PartitionId{ProjectId: datasetID},
			Path: []*datastorepb.Key_PathElement{
				{Kind: kind, IdType: &datastorepb.Key_PathElement_Id{Id: id}},
			},
		},
	}
	if name != "" {
		e.Properties = map[string]*datastorepb.Value{
			name: {ValueType: &datastorepb.Value_StringValue{StringValue: strVal}},
		}
	}
	return e
}
