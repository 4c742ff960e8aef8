package datastore

import (
	"fmt"
	"sort"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Proto returns the wire representation of the key.
func (k *Key) Proto() *datastorepb.Key {
	if k == nil {
		return nil
	}

	path := k.Path()
	pKey := &datastorepb.Key{
		PartitionId: &datastorepb.PartitionId{
			ProjectId:   k.datasetID,
			NamespaceId: k.namespace,
		},
		Path: make([]*datastorepb.Key_PathElement, 0, len(path)),
	}
	for _, e := range path {
		elem := &datastorepb.Key_PathElement{Kind: e.Kind}
		if e.Name != "" {
			elem.IdType = &datastorepb.Key_PathElement_Name{Name: e.Name}
		} else if e.ID != 0 {
			elem.IdType = &datastorepb.Key_PathElement_Id{Id: e.ID}
		}
		pKey.Path = append(pKey.Path, elem)
	}

	return pKey
}

// KeyFromProto decodes a wire key. The dataset id is taken from the
// partition's project id.
func KeyFromProto(pKey *datastorepb.Key) (*Key, error) {
	if pKey == nil || len(pKey.GetPath()) == 0 {
		return nil, fmt.Errorf("%w: wire key has no path", ErrInvalidKey)
	}

	datasetID := pKey.GetPartitionId().GetProjectId()
	namespace := pKey.GetPartitionId().GetNamespaceId()

	var key *Key
	for idx, elem := range pKey.GetPath() {
		if elem.GetKind() == "" {
			return nil, fmt.Errorf("%w: path element #%d has no kind", ErrInvalidKey, idx)
		}
		if key != nil && key.Incomplete() {
			return nil, fmt.Errorf("%w: path element #%d follows an incomplete element", ErrInvalidKey, idx)
		}
		key = &Key{
			datasetID: datasetID,
			namespace: namespace,
			kind:      elem.GetKind(),
			id:        elem.GetId(),
			name:      elem.GetName(),
			parent:    key,
		}
	}

	return key, nil
}

func keysToProto(keys []*Key, datasetID string) []*datastorepb.Key {
	pKeys := make([]*datastorepb.Key, len(keys))
	for idx, key := range keys {
		pKeys[idx] = keyToProto(key, datasetID)
	}
	return pKeys
}

// keyToProto encodes key, binding it to datasetID when it has none.
func keyToProto(key *Key, datasetID string) *datastorepb.Key {
	if key.datasetID == "" {
		key = key.WithDatasetID(datasetID)
	}
	return key.Proto()
}

func keysFromProto(pKeys []*datastorepb.Key) ([]*Key, error) {
	keys := make([]*Key, 0, len(pKeys))
	for _, pKey := range pKeys {
		key, err := KeyFromProto(pKey)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Proto returns the wire representation of the entity.
func (e *Entity) Proto() *datastorepb.Entity {
	if e == nil {
		return nil
	}
	pEntity := &datastorepb.Entity{
		Key:        e.Key.Proto(),
		Properties: make(map[string]*datastorepb.Value, len(e.Properties)),
	}
	for _, p := range e.Properties {
		pv := p.Value.proto()
		pv.ExcludeFromIndexes = p.NoIndex
		pEntity.Properties[p.Name] = pv
	}
	return pEntity
}

// EntityFromProto decodes a wire entity. The wire property map has no order,
// so properties are sorted by name.
func EntityFromProto(pEntity *datastorepb.Entity) (*Entity, error) {
	return entityFromProto(pEntity, true)
}

func entityFromProto(pEntity *datastorepb.Entity, requireKey bool) (*Entity, error) {
	if pEntity == nil {
		return nil, fmt.Errorf("datastore: wire entity is nil")
	}

	e := &Entity{}
	if pEntity.GetKey() != nil || requireKey {
		key, err := KeyFromProto(pEntity.GetKey())
		if err != nil {
			return nil, err
		}
		e.Key = key
	}

	names := make([]string, 0, len(pEntity.GetProperties()))
	for name := range pEntity.GetProperties() {
		names = append(names, name)
	}
	sort.Strings(names)

	e.Properties = make([]Property, 0, len(names))
	for _, name := range names {
		pv := pEntity.GetProperties()[name]
		v, err := valueFromProto(pv)
		if err != nil {
			return nil, fmt.Errorf("datastore: property %q: %w", name, err)
		}
		e.Properties = append(e.Properties, Property{
			Name:    name,
			Value:   v,
			NoIndex: pv.GetExcludeFromIndexes(),
		})
	}

	return e, nil
}

func (v Value) proto() *datastorepb.Value {
	pv := &datastorepb.Value{}
	switch v.typ {
	case NullType:
		pv.ValueType = &datastorepb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}
	case BoolType:
		pv.ValueType = &datastorepb.Value_BooleanValue{BooleanValue: v.b}
	case IntType:
		pv.ValueType = &datastorepb.Value_IntegerValue{IntegerValue: v.i}
	case DoubleType:
		pv.ValueType = &datastorepb.Value_DoubleValue{DoubleValue: v.f}
	case TimeType:
		pv.ValueType = &datastorepb.Value_TimestampValue{TimestampValue: timestamppb.New(v.t)}
	case KeyType:
		pv.ValueType = &datastorepb.Value_KeyValue{KeyValue: v.key.Proto()}
	case StringType:
		pv.ValueType = &datastorepb.Value_StringValue{StringValue: v.s}
	case BlobType:
		pv.ValueType = &datastorepb.Value_BlobValue{BlobValue: v.blob}
	case GeoPointType:
		pv.ValueType = &datastorepb.Value_GeoPointValue{GeoPointValue: &latlng.LatLng{Latitude: v.geo.Lat, Longitude: v.geo.Lng}}
	case EntityType:
		pv.ValueType = &datastorepb.Value_EntityValue{EntityValue: v.ent.Proto()}
	case ArrayType:
		values := make([]*datastorepb.Value, 0, len(v.arr))
		for _, elem := range v.arr {
			values = append(values, elem.proto())
		}
		pv.ValueType = &datastorepb.Value_ArrayValue{ArrayValue: &datastorepb.ArrayValue{Values: values}}
	}
	return pv
}

func valueFromProto(pv *datastorepb.Value) (Value, error) {
	switch t := pv.GetValueType().(type) {
	case nil, *datastorepb.Value_NullValue:
		return NullValue(), nil
	case *datastorepb.Value_BooleanValue:
		return BoolValue(t.BooleanValue), nil
	case *datastorepb.Value_IntegerValue:
		return IntValue(t.IntegerValue), nil
	case *datastorepb.Value_DoubleValue:
		return DoubleValue(t.DoubleValue), nil
	case *datastorepb.Value_TimestampValue:
		if err := t.TimestampValue.CheckValid(); err != nil {
			return Value{}, err
		}
		return TimeValue(t.TimestampValue.AsTime()), nil
	case *datastorepb.Value_KeyValue:
		key, err := KeyFromProto(t.KeyValue)
		if err != nil {
			return Value{}, err
		}
		return KeyValue(key), nil
	case *datastorepb.Value_StringValue:
		return StringValue(t.StringValue), nil
	case *datastorepb.Value_BlobValue:
		return BlobValue(t.BlobValue), nil
	case *datastorepb.Value_GeoPointValue:
		return GeoPointValue(GeoPoint{Lat: t.GeoPointValue.GetLatitude(), Lng: t.GeoPointValue.GetLongitude()}), nil
	case *datastorepb.Value_EntityValue:
		e, err := entityFromProto(t.EntityValue, false)
		if err != nil {
			return Value{}, err
		}
		return EntityValue(e), nil
	case *datastorepb.Value_ArrayValue:
		values := make([]Value, 0, len(t.ArrayValue.GetValues()))
		for _, elem := range t.ArrayValue.GetValues() {
			v, err := valueFromProto(elem)
			if err != nil {
				return Value{}, err
			}
			values = append(values, v)
		}
		return ArrayValue(values...), nil
	}
	return Value{}, fmt.Errorf("datastore: unsupported wire value %T", pv.GetValueType())
}
