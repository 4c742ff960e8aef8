package datastore

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"strings"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"google.golang.org/protobuf/proto"
)

// Key represents the datastore key for a stored entity.
// A Key is immutable; the With* methods return modified copies.
type Key struct {
	datasetID string
	namespace string
	kind      string
	id        int64
	name      string
	parent    *Key
}

// PathElement is one (kind, id or name) segment of a key path.
type PathElement struct {
	Kind string
	ID   int64
	Name string
}

// IncompleteKey creates a new incomplete key.
// When parent is non-nil and datasetID is empty, the key belongs to the
// parent's dataset. The namespace is always inherited from parent.
func IncompleteKey(datasetID, kind string, parent *Key) *Key {
	return newKey(datasetID, kind, 0, "", parent)
}

// IDKey creates a new key with a numeric identifier.
// id 0 makes an incomplete key.
func IDKey(datasetID, kind string, id int64, parent *Key) *Key {
	return newKey(datasetID, kind, id, "", parent)
}

// NameKey creates a new key with a string identifier.
// An empty name makes an incomplete key.
func NameKey(datasetID, kind, name string, parent *Key) *Key {
	return newKey(datasetID, kind, 0, name, parent)
}

// NewKey builds a key from a root-first path. It returns nil for an empty path.
func NewKey(datasetID, namespace string, path ...PathElement) *Key {
	var key *Key
	for _, e := range path {
		key = &Key{
			datasetID: datasetID,
			namespace: namespace,
			kind:      e.Kind,
			id:        e.ID,
			name:      e.Name,
			parent:    key,
		}
	}
	return key
}

func newKey(datasetID, kind string, id int64, name string, parent *Key) *Key {
	k := &Key{
		datasetID: datasetID,
		kind:      kind,
		id:        id,
		name:      name,
		parent:    parent,
	}
	if parent != nil {
		if datasetID == "" {
			k.datasetID = parent.datasetID
		}
		k.namespace = parent.namespace
	}
	return k
}

// DatasetID returns the dataset id, empty for a key bound at call time.
func (k *Key) DatasetID() string {
	return k.datasetID
}

// Namespace returns the namespace of the key.
func (k *Key) Namespace() string {
	return k.namespace
}

// Kind returns the kind of the last path element.
func (k *Key) Kind() string {
	return k.kind
}

// ID returns the numeric id, or 0 for a name key or an incomplete key.
func (k *Key) ID() int64 {
	return k.id
}

// Name returns the string id, or "" for an id key or an incomplete key.
func (k *Key) Name() string {
	return k.name
}

// ParentKey returns the parent key, or nil for a root key.
func (k *Key) ParentKey() *Key {
	return k.parent
}

// Incomplete reports whether the key does not refer to a stored entity yet.
func (k *Key) Incomplete() bool {
	return k.id == 0 && k.name == ""
}

// Path returns the key path, root first.
func (k *Key) Path() []PathElement {
	depth := 0
	for key := k; key != nil; key = key.parent {
		depth++
	}
	path := make([]PathElement, depth)
	for key := k; key != nil; key = key.parent {
		depth--
		path[depth] = PathElement{Kind: key.kind, ID: key.id, Name: key.name}
	}
	return path
}

// Valid reports whether the key is usable for an RPC: every element has a
// kind, only the last element may be incomplete, and the whole chain shares
// one dataset id and namespace.
func (k *Key) Valid() bool {
	if k == nil {
		return false
	}
	for key := k; key != nil; key = key.parent {
		if key.kind == "" {
			return false
		}
		if key.id != 0 && key.name != "" {
			return false
		}
		if key != k && key.Incomplete() {
			return false
		}
		if p := key.parent; p != nil {
			if p.datasetID != key.datasetID || p.namespace != key.namespace {
				return false
			}
		}
	}
	return true
}

// Equal reports whether two keys refer to the same entity.
func (k *Key) Equal(o *Key) bool {
	for k != nil && o != nil {
		if k.datasetID != o.datasetID || k.namespace != o.namespace {
			return false
		}
		if k.kind != o.kind || k.id != o.id || k.name != o.name {
			return false
		}
		k, o = k.parent, o.parent
	}
	return k == o
}

// WithDatasetID returns a copy of k whose whole chain belongs to datasetID.
func (k *Key) WithDatasetID(datasetID string) *Key {
	return k.rebind(datasetID, k.namespace)
}

// WithNamespace returns a copy of k whose whole chain lives in namespace.
func (k *Key) WithNamespace(namespace string) *Key {
	return k.rebind(k.datasetID, namespace)
}

func (k *Key) rebind(datasetID, namespace string) *Key {
	if k == nil {
		return nil
	}
	return &Key{
		datasetID: datasetID,
		namespace: namespace,
		kind:      k.kind,
		id:        k.id,
		name:      k.name,
		parent:    k.parent.rebind(datasetID, namespace),
	}
}

// String returns a string representation of the key path,
// e.g. "/Kind,1234/Child,name".
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	b := bytes.NewBuffer(make([]byte, 0, 64))
	k.marshal(b)
	return b.String()
}

func (k *Key) marshal(b *bytes.Buffer) {
	if k.parent != nil {
		k.parent.marshal(b)
	}
	b.WriteByte('/')
	b.WriteString(k.kind)
	b.WriteByte(',')
	if k.name != "" {
		b.WriteString(k.name)
	} else {
		b.WriteString(strconv.FormatInt(k.id, 10))
	}
}

// Encode returns an opaque representation of the key
// suitable for use in HTML and URLs.
func (k *Key) Encode() string {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(k.Proto())
	if err != nil {
		panic(err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "=")
}

// DecodeKey decodes a key from the opaque representation returned by Encode.
func DecodeKey(encoded string) (*Key, error) {
	if m := len(encoded) % 4; m != 0 {
		encoded += strings.Repeat("=", 4-m)
	}

	b, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	pKey := &datastorepb.Key{}
	if err := proto.Unmarshal(b, pKey); err != nil {
		return nil, err
	}
	return KeyFromProto(pKey)
}
