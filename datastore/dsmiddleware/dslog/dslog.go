package dslog

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"go.mercari.io/gcloud/datastore"
)

var _ datastore.Middleware = &logger{}

// NewLogger returns a middleware that writes two lines per RPC through logf,
// one before the call and one with its outcome.
func NewLogger(prefix string, logf func(ctx context.Context, format string, args ...interface{})) datastore.Middleware {
	return &logger{Prefix: prefix, Logf: logf, counter: 1}
}

type logger struct {
	Prefix string
	Logf   func(ctx context.Context, format string, args ...interface{})

	m       sync.Mutex
	counter int
}

func (l *logger) next() int {
	l.m.Lock()
	defer l.m.Unlock()

	cnt := l.counter
	l.counter++
	return cnt
}

func (l *logger) KeysToString(keys []*datastorepb.Key) string {
	keyStrings := make([]string, 0, len(keys))
	for _, pKey := range keys {
		key, err := datastore.KeyFromProto(pKey)
		if err != nil {
			keyStrings = append(keyStrings, "<invalid>")
			continue
		}
		keyStrings = append(keyStrings, key.String())
	}

	return strings.Join(keyStrings, ", ")
}

func (l *logger) Lookup(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) (*datastorepb.LookupResponse, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"Lookup #%d, dataset=%s, len(keys)=%d, keys=[%s]", cnt, info.DatasetID, len(keys), l.KeysToString(keys))

	resp, err := info.Next.Lookup(info, keys)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"Lookup #%d, len(found)=%d, len(missing)=%d, len(deferred)=%d", cnt, len(resp.GetFound()), len(resp.GetMissing()), len(resp.GetDeferred()))
	} else {
		l.Logf(info.Context, l.Prefix+"Lookup #%d, err=%s", cnt, err.Error())
	}

	return resp, err
}

func (l *logger) AllocateIDs(info *datastore.MiddlewareInfo, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	cnt := l.next()

	l.Logf(info.Context, l.Prefix+"AllocateIDs #%d, dataset=%s, len(keys)=%d, keys=[%s]", cnt, info.DatasetID, len(keys), l.KeysToString(keys))

	keys, err := info.Next.AllocateIDs(info, keys)

	if err == nil {
		l.Logf(info.Context, l.Prefix+"AllocateIDs #%d, keys=[%s]", cnt, l.KeysToString(keys))
	} else {
		l.Logf(info.Context, l.Prefix+"AllocateIDs #%d, err=%s", cnt, err.Error())
	}

	return keys, err
}
