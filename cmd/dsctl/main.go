// Command dsctl looks up entities and allocates ids in Cloud Datastore.
//
//	dsctl get [--dataset=ID] [--namespace=NS] Kind:1234/Child:name ...
//	dsctl allocate [--dataset=ID] [--namespace=NS] Kind N
//
// Results are written to stdout as YAML. The dataset id defaults to the one
// detected from the environment, and DATASTORE_EMULATOR_HOST is honored.
package main // import "go.mercari.io/gcloud/cmd/dsctl"

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"go.mercari.io/gcloud/datastore"
	"go.mercari.io/gcloud/datastore/clouddatastore"
	"go.mercari.io/gcloud/datastore/dsmiddleware/dslog"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app     = kingpin.New("dsctl", "Look up entities and allocate ids in Cloud Datastore.")
	verbose = app.Flag("verbose", "log every RPC to stderr").Short('v').Bool()

	getCmd       = app.Command("get", "look up entities by key")
	getDataset   = getCmd.Flag("dataset", "dataset id, detected from the environment when empty").Short('d').String()
	getNamespace = getCmd.Flag("namespace", "namespace of the keys").Short('n').String()
	getKeys      = getCmd.Arg("key", "key as Kind:1234/Child:name").Required().Strings()

	allocCmd       = app.Command("allocate", "allocate ids for an incomplete key")
	allocDataset   = allocCmd.Flag("dataset", "dataset id, detected from the environment when empty").Short('d').String()
	allocNamespace = allocCmd.Flag("namespace", "namespace of the key").Short('n').String()
	allocKind      = allocCmd.Arg("kind", "kind, or Parent:p/Kind for a child").Required().String()
	allocN         = allocCmd.Arg("n", "number of ids").Default("1").Int()
)

func main() {
	log.SetPrefix("dsctl: ")
	app.HelpFlag.Short('h')

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	dataset := *getDataset
	if cmd == allocCmd.FullCommand() {
		dataset = *allocDataset
	}

	ctx := context.Background()
	env, closeFn, err := newEnvironment(ctx, dataset)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	switch cmd {
	case getCmd.FullCommand():
		err = runGet(ctx, env, os.Stdout, *getNamespace, *getKeys)
	case allocCmd.FullCommand():
		err = runAllocate(ctx, env, os.Stdout, *allocNamespace, *allocKind, *allocN)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newEnvironment(ctx context.Context, dataset string) (*datastore.Environment, func(), error) {
	var opts []datastore.ClientOption
	if dataset != "" {
		opts = append(opts, datastore.WithProjectID(dataset))
	}

	conn, err := clouddatastore.FromContext(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	if *verbose {
		conn.AppendMiddleware(dslog.NewLogger("rpc: ", func(ctx context.Context, format string, args ...interface{}) {
			log.Printf(format, args...)
		}))
	}

	closeFn := func() {
		if err := conn.Close(); err != nil {
			log.Print(err)
		}
	}
	return datastore.NewEnvironment(conn.ProjectID(), conn), closeFn, nil
}

func runGet(ctx context.Context, env *datastore.Environment, w io.Writer, namespace string, args []string) error {
	keys := make([]*datastore.Key, 0, len(args))
	for _, arg := range args {
		key, err := parseKey("", namespace, arg)
		if err != nil {
			return err
		}
		if key.Incomplete() {
			return fmt.Errorf("key %q is incomplete", arg)
		}
		keys = append(keys, key)
	}

	res, err := env.Lookup(ctx, keys)
	if err != nil {
		return err
	}
	return writeLookup(w, res)
}

func runAllocate(ctx context.Context, env *datastore.Environment, w io.Writer, namespace, kind string, n int) error {
	key, err := parseKey("", namespace, kind)
	if err != nil {
		return err
	}
	if !key.Incomplete() {
		return fmt.Errorf("key %q must be incomplete", kind)
	}

	keys, err := env.AllocateIDs(ctx, key, n)
	if err != nil {
		return err
	}

	datasetID := env.DatasetID()
	if len(keys) != 0 {
		datasetID = keys[0].DatasetID()
	}
	return writeAllocate(w, datasetID, keys)
}
