// Package store provides the durable document store backing the jar.
//
// The persisted state is two ordered collections of JSON records,
// "cookies" and "projects". Backends guarantee atomic replacement of a
// whole collection; callers own read-modify-write cycles and serialize
// them through a shared Guard.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Collection names.
const (
	Cookies  = "cookies"
	Projects = "projects"
)

// ErrIO indicates a durable-store read or write failure.
var ErrIO = errors.New("store i/o failure")

// Store persists ordered collections of raw JSON records.
type Store interface {
	// Get returns the records of a collection in order. A collection that
	// was never written reads as empty.
	Get(ctx context.Context, collection string) ([]json.RawMessage, error)
	// Set atomically replaces a collection.
	Set(ctx context.Context, collection string, records []json.RawMessage) error
	Close() error
}

// Guard serializes read-modify-write cycles against the store. Every
// mutating caller inside the daemon locks it for the whole cycle, so
// overlapping calls from the overlay and the dashboard cannot lose
// updates against each other.
type Guard struct {
	mu sync.Mutex
}

// Do runs fn while holding the write lock.
func (g *Guard) Do(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
