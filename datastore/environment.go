package datastore

import (
	"sync"
)

// Environment holds the dataset id and connection used when a call does not
// pass them explicitly. An explicit value always wins over the Environment.
//
// The read and Resolve methods accept a nil *Environment, which behaves like
// an empty one. SetDatasetID, SetConnection and Swap need a non-nil one.
type Environment struct {
	m         sync.RWMutex
	datasetID string
	conn      Connection
}

// NewEnvironment returns an Environment with the given defaults. Either may be empty.
func NewEnvironment(datasetID string, conn Connection) *Environment {
	return &Environment{datasetID: datasetID, conn: conn}
}

// DatasetID returns the default dataset id.
func (e *Environment) DatasetID() string {
	if e == nil {
		return ""
	}
	e.m.RLock()
	defer e.m.RUnlock()
	return e.datasetID
}

// Connection returns the default connection.
func (e *Environment) Connection() Connection {
	if e == nil {
		return nil
	}
	e.m.RLock()
	defer e.m.RUnlock()
	return e.conn
}

// SetDatasetID replaces the default dataset id.
func (e *Environment) SetDatasetID(datasetID string) {
	e.m.Lock()
	defer e.m.Unlock()
	e.datasetID = datasetID
}

// SetConnection replaces the default connection.
func (e *Environment) SetConnection(conn Connection) {
	e.m.Lock()
	defer e.m.Unlock()
	e.conn = conn
}

// Swap replaces both defaults and returns a func that puts the previous ones back.
//
//	restore := env.Swap("DATASET", conn)
//	defer restore()
func (e *Environment) Swap(datasetID string, conn Connection) (restore func()) {
	e.m.Lock()
	defer e.m.Unlock()
	prevID, prevConn := e.datasetID, e.conn
	e.datasetID, e.conn = datasetID, conn
	return func() {
		e.m.Lock()
		defer e.m.Unlock()
		e.datasetID, e.conn = prevID, prevConn
	}
}

// ResolveDatasetID returns explicit when it is non-empty, else the default.
func (e *Environment) ResolveDatasetID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if id := e.DatasetID(); id != "" {
		return id, nil
	}
	return "", ErrNoDatasetID
}

// ResolveConnection returns explicit when it is non-nil, else the default.
func (e *Environment) ResolveConnection(explicit Connection) (Connection, error) {
	if explicit != nil {
		return explicit, nil
	}
	if conn := e.Connection(); conn != nil {
		return conn, nil
	}
	return nil, ErrNoConnection
}

var defaultEnvironment = &Environment{}

// DefaultEnvironment returns the process-wide Environment used by the
// package-level Get, Lookup and AllocateIDs.
// Configure it once at program start; libraries should take an *Environment instead.
func DefaultEnvironment() *Environment {
	return defaultEnvironment
}

// SetDefaultDatasetID sets the dataset id of DefaultEnvironment.
func SetDefaultDatasetID(datasetID string) {
	defaultEnvironment.SetDatasetID(datasetID)
}

// SetDefaultConnection sets the connection of DefaultEnvironment.
func SetDefaultConnection(conn Connection) {
	defaultEnvironment.SetConnection(conn)
}
