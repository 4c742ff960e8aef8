package datastore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned when an invalid key is presented.
var ErrInvalidKey = errors.New("datastore: invalid key")

// ConfigurationError is returned when a call needs a dataset id or connection,
// none was passed explicitly and the Environment has no default either.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("datastore: no %s configured", e.Setting)
}

var (
	ErrNoDatasetID  = &ConfigurationError{Setting: "dataset id"}
	ErrNoConnection = &ConfigurationError{Setting: "connection"}
)

// MixedDatasetError is returned when the keys of one batch call belong to
// more than one dataset. DatasetIDs is sorted.
type MixedDatasetError struct {
	DatasetIDs []string
}

func (e *MixedDatasetError) Error() string {
	return fmt.Sprintf("datastore: keys span multiple datasets: %s", strings.Join(e.DatasetIDs, ", "))
}

// InvalidArgumentError is returned when an argument is rejected before any RPC.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "datastore: invalid argument: " + e.Reason
}

// ErrKeyComplete is returned by AllocateIDs for a key that already has an id or name.
var ErrKeyComplete = &InvalidArgumentError{Reason: "key must be incomplete"}
