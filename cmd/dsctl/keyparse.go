package main

import (
	"fmt"
	"strconv"
	"strings"

	"go.mercari.io/gcloud/datastore"
)

// parseKey parses "Kind:1234/Child:name" into a key.
// A numeric identifier makes an id key, anything else a name key.
// "Kind:" or a bare "Kind" as the last element makes an incomplete key.
func parseKey(datasetID, namespace, s string) (*datastore.Key, error) {
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}

	parts := strings.Split(s, "/")
	path := make([]datastore.PathElement, 0, len(parts))
	for idx, part := range parts {
		kind, ident, _ := strings.Cut(part, ":")
		if kind == "" {
			return nil, fmt.Errorf("key %q: element %d has no kind", s, idx)
		}
		elem := datastore.PathElement{Kind: kind}
		if ident != "" {
			if id, err := strconv.ParseInt(ident, 10, 64); err == nil {
				elem.ID = id
			} else {
				elem.Name = ident
			}
		} else if idx != len(parts)-1 {
			return nil, fmt.Errorf("key %q: ancestor %s is incomplete", s, kind)
		}
		path = append(path, elem)
	}

	key := datastore.NewKey(datasetID, namespace, path...)
	if !key.Valid() {
		return nil, fmt.Errorf("key %q: %w", s, datastore.ErrInvalidKey)
	}
	return key, nil
}

// formatKey is the inverse of parseKey.
func formatKey(key *datastore.Key) string {
	path := key.Path()
	parts := make([]string, 0, len(path))
	for _, elem := range path {
		switch {
		case elem.Name != "":
			parts = append(parts, elem.Kind+":"+elem.Name)
		case elem.ID != 0:
			parts = append(parts, elem.Kind+":"+strconv.FormatInt(elem.ID, 10))
		default:
			parts = append(parts, elem.Kind)
		}
	}
	return strings.Join(parts, "/")
}
