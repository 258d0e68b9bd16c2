// Package store defines the GraphStore interface for persisting and reading
// the chunk graph.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Edge represents a directed, weighted relation between two chunks.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// GraphStore defines the interface for storing and reading the chunk graph.
//
// Implementations must give UpsertNode insert-or-ignore semantics and
// UpsertEdge insert-or-replace semantics keyed by the ordered (source, target)
// pair. Every I/O failure is reported as a *StoreError.
type GraphStore interface {
	// ListEdges returns the full edge set as of the call.
	ListEdges(ctx context.Context) ([]Edge, error)
	// ListNodes returns every known chunk name, sorted.
	ListNodes(ctx context.Context) ([]string, error)

	UpsertNode(ctx context.Context, name string) error
	UpsertEdge(ctx context.Context, source, target string, weight float64) error

	// SearchNodes returns the sorted names of chunks that appear in at least
	// one edge and contain keyword, compared case-insensitively.
	SearchNodes(ctx context.Context, keyword string) ([]string, error)
	// SearchEdges returns the edges with either endpoint containing keyword,
	// compared case-insensitively, in ListEdges order.
	SearchEdges(ctx context.Context, keyword string) ([]Edge, error)

	// Rename replaces every occurrence of from with to in node names and edge
	// endpoints as one atomic change. Nodes that collide merge; edges that
	// collide merge and the later edge in ListEdges order keeps its weight.
	Rename(ctx context.Context, from, to string) (RenameResult, error)

	// Clear removes every node and edge.
	Clear(ctx context.Context) error

	Close() error
}

// StoreError reports a failed read or write against the backing store.
type StoreError struct {
	Op  string // "list edges", "upsert edge", ...
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

var errClosed = errors.New("store is closed")

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)
