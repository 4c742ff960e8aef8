package datastore

import (
	"bytes"
	"fmt"
	"time"
)

// ValueType tells which field of a Value is populated.
type ValueType int

const (
	NullType ValueType = iota
	BoolType
	IntType
	DoubleType
	TimeType
	KeyType
	StringType
	BlobType
	GeoPointType
	EntityType
	ArrayType
)

var valueTypeNames = [...]string{
	NullType:     "null",
	BoolType:     "bool",
	IntType:      "int",
	DoubleType:   "double",
	TimeType:     "time",
	KeyType:      "key",
	StringType:   "string",
	BlobType:     "blob",
	GeoPointType: "geopoint",
	EntityType:   "entity",
	ArrayType:    "array",
}

// String returns the name of the type.
func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
	return valueTypeNames[t]
}

// GeoPoint is a latitude and longitude pair in degrees.
type GeoPoint struct {
	Lat, Lng float64
}

// Value is a single property value. The zero Value is null.
type Value struct {
	typ ValueType

	b    bool
	i    int64
	f    float64
	t    time.Time
	s    string
	blob []byte
	key  *Key
	geo  GeoPoint
	ent  *Entity
	arr  []Value
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{typ: BoolType, b: b} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{typ: IntType, i: i} }

// DoubleValue returns a floating point Value.
func DoubleValue(f float64) Value { return Value{typ: DoubleType, f: f} }

// TimeValue returns a timestamp Value.
func TimeValue(t time.Time) Value { return Value{typ: TimeType, t: t} }

// KeyValue returns a Value referring to another entity.
func KeyValue(k *Key) Value { return Value{typ: KeyType, key: k} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{typ: StringType, s: s} }

// BlobValue returns a byte string Value.
func BlobValue(b []byte) Value { return Value{typ: BlobType, blob: b} }

// GeoPointValue returns a geographic point Value.
func GeoPointValue(g GeoPoint) Value { return Value{typ: GeoPointType, geo: g} }

// EntityValue returns an embedded entity Value.
func EntityValue(e *Entity) Value { return Value{typ: EntityType, ent: e} }

// ArrayValue returns a Value holding values in order.
func ArrayValue(values ...Value) Value { return Value{typ: ArrayType, arr: values} }

// ValueOf converts a plain Go value into a Value.
func ValueOf(v interface{}) (Value, error) {
	switch v := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int8:
		return IntValue(int64(v)), nil
	case int16:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case float32:
		return DoubleValue(float64(v)), nil
	case float64:
		return DoubleValue(v), nil
	case time.Time:
		return TimeValue(v), nil
	case *Key:
		return KeyValue(v), nil
	case string:
		return StringValue(v), nil
	case []byte:
		return BlobValue(v), nil
	case GeoPoint:
		return GeoPointValue(v), nil
	case *Entity:
		return EntityValue(v), nil
	case []interface{}:
		values := make([]Value, 0, len(v))
		for _, elem := range v {
			ev, err := ValueOf(elem)
			if err != nil {
				return Value{}, err
			}
			values = append(values, ev)
		}
		return ArrayValue(values...), nil
	}
	return Value{}, fmt.Errorf("datastore: unsupported value type %T", v)
}

// Type returns the kind of value held by v.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool {
	return v.typ == NullType
}

// The As methods return the held value and whether v has that type.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == BoolType }
func (v Value) AsInt() (int64, bool) { return v.i, v.typ == IntType }
func (v Value) AsDouble() (float64, bool) { return v.f, v.typ == DoubleType }
func (v Value) AsTime() (time.Time, bool) { return v.t, v.typ == TimeType }
func (v Value) AsKey() (*Key, bool) { return v.key, v.typ == KeyType }
func (v Value) AsString() (string, bool) { return v.s, v.typ == StringType }
func (v Value) AsBlob() ([]byte, bool) { return v.blob, v.typ == BlobType }
func (v Value) AsGeoPoint() (GeoPoint, bool) { return v.geo, v.typ == GeoPointType }
func (v Value) AsEntity() (*Entity, bool) { return v.ent, v.typ == EntityType }
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.typ == ArrayType }

// Interface returns the plain Go value held by v.
// Arrays become []interface{}.
func (v Value) Interface() interface{} {
	switch v.typ {
	case BoolType:
		return v.b
	case IntType:
		return v.i
	case DoubleType:
		return v.f
	case TimeType:
		return v.t
	case KeyType:
		return v.key
	case StringType:
		return v.s
	case BlobType:
		return v.blob
	case GeoPointType:
		return v.geo
	case EntityType:
		return v.ent
	case ArrayType:
		list := make([]interface{}, 0, len(v.arr))
		for _, elem := range v.arr {
			list = append(list, elem.Interface())
		}
		return list
	}
	return nil
}

// Equal reports whether v and o hold the same type and value.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case NullType:
		return true
	case BoolType:
		return v.b == o.b
	case IntType:
		return v.i == o.i
	case DoubleType:
		return v.f == o.f
	case TimeType:
		return v.t.Equal(o.t)
	case KeyType:
		return v.key.Equal(o.key)
	case StringType:
		return v.s == o.s
	case BlobType:
		return bytes.Equal(v.blob, o.blob)
	case GeoPointType:
		return v.geo == o.geo
	case EntityType:
		return v.ent.Equal(o.ent)
	case ArrayType:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for idx := range v.arr {
			if !v.arr[idx].Equal(o.arr[idx]) {
				return false
			}
		}
		return true
	}
	return false
}

// String formats v for logs.
func (v Value) String() string {
	if v.typ == NullType {
		return "null"
	}
	return fmt.Sprintf("%s(%v)", v.typ, v.Interface())
}
