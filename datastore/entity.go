package datastore

// Property is a named value of an entity.
// NoIndex reports that the value is excluded from indexes.
type Property struct {
	Name    string
	Value   Value
	NoIndex bool
}

// Entity is a key and its properties, as decoded from a lookup.
type Entity struct {
	Key        *Key
	Properties []Property
}

// Get returns the value of the named property.
func (e *Entity) Get(name string) (Value, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Names returns the property names in stored order.
func (e *Entity) Names() []string {
	names := make([]string, 0, len(e.Properties))
	for _, p := range e.Properties {
		names = append(names, p.Name)
	}
	return names
}

// Map returns the properties as plain Go values keyed by name.
func (e *Entity) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(e.Properties))
	for _, p := range e.Properties {
		m[p.Name] = p.Value.Interface()
	}
	return m
}

// Equal reports whether both entities have equal keys and the same
// properties in the same order.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	if !e.Key.Equal(o.Key) {
		return false
	}
	if len(e.Properties) != len(o.Properties) {
		return false
	}
	for idx, p := range e.Properties {
		q := o.Properties[idx]
		if p.Name != q.Name || p.NoIndex != q.NoIndex || !p.Value.Equal(q.Value) {
			return false
		}
	}
	return true
}
