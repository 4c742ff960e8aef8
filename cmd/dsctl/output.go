package main

import (
	"encoding/base64"
	"io"
	"time"

	"go.mercari.io/gcloud/datastore"
	"gopkg.in/yaml.v2"
)

type entityDoc struct {
	Key        string        `yaml:"key"`
	Properties yaml.MapSlice `yaml:"properties,omitempty"`
}

type lookupDoc struct {
	Found    []entityDoc `yaml:"found"`
	Missing  []string    `yaml:"missing,omitempty"`
	Deferred []string    `yaml:"deferred,omitempty"`
}

type allocateDoc struct {
	Dataset string   `yaml:"dataset"`
	Keys    []string `yaml:"keys"`
}

func writeLookup(w io.Writer, res *datastore.LookupResult) error {
	doc := lookupDoc{
		Found:    make([]entityDoc, 0, len(res.Found)),
		Missing:  formatKeys(res.Missing),
		Deferred: formatKeys(res.Deferred),
	}
	for _, e := range res.Found {
		doc.Found = append(doc.Found, toEntityDoc(e))
	}
	return writeYAML(w, doc)
}

func writeAllocate(w io.Writer, datasetID string, keys []*datastore.Key) error {
	return writeYAML(w, allocateDoc{Dataset: datasetID, Keys: formatKeys(keys)})
}

func writeYAML(w io.Writer, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func formatKeys(keys []*datastore.Key) []string {
	if len(keys) == 0 {
		return nil
	}
	list := make([]string, 0, len(keys))
	for _, key := range keys {
		list = append(list, formatKey(key))
	}
	return list
}

func toEntityDoc(e *datastore.Entity) entityDoc {
	doc := entityDoc{}
	if e.Key != nil {
		doc.Key = formatKey(e.Key)
	}
	for _, p := range e.Properties {
		doc.Properties = append(doc.Properties, yaml.MapItem{Key: p.Name, Value: yamlValue(p.Value)})
	}
	return doc
}

// yamlValue converts v into something yaml.v2 renders readably.
func yamlValue(v datastore.Value) interface{} {
	switch v.Type() {
	case datastore.TimeType:
		t, _ := v.AsTime()
		return t.UTC().Format(time.RFC3339Nano)
	case datastore.KeyType:
		k, _ := v.AsKey()
		return formatKey(k)
	case datastore.BlobType:
		b, _ := v.AsBlob()
		return base64.StdEncoding.EncodeToString(b)
	case datastore.GeoPointType:
		g, _ := v.AsGeoPoint()
		return yaml.MapSlice{{Key: "lat", Value: g.Lat}, {Key: "lng", Value: g.Lng}}
	case datastore.EntityType:
		e, _ := v.AsEntity()
		return toEntityDoc(e)
	case datastore.ArrayType:
		arr, _ := v.AsArray()
		list := make([]interface{}, 0, len(arr))
		for _, elem := range arr {
			list = append(list, yamlValue(elem))
		}
		return list
	}
	return v.Interface()
}
