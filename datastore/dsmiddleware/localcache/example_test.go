package localcache_test

import (
	"context"

	"go.mercari.io/gcloud/datastore/clouddatastore"
	"go.mercari.io/gcloud/datastore/dsmiddleware/localcache"
)

func Example_howToUse() {
	ctx := context.Background()
	conn, err := clouddatastore.FromContext(ctx)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	mw := localcache.New()
	conn.AppendMiddleware(mw)
}
