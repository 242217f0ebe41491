// Package store defines the contract between the portal and the remote
// document database.
//
// A [Collection] is one named table of documents with a declared sort
// order. It supports a one-shot ordered read, a standing watch that
// delivers a full-collection snapshot whenever the underlying data
// changes, and plain point writes. The [Sequencer] is the only
// transactional surface: an atomic counter allocator used for
// human-readable sequential identifiers.
//
// Two implementations exist: pkg/store/surreal talks to SurrealDB over
// its live-query protocol, and pkg/store/memory is an in-process
// implementation with the same snapshot semantics used by tests and
// local development.
package store

import (
	"context"
	"errors"
)

// ErrTransaction reports that an atomic counter transaction could not
// commit within its retry budget. Callers allocating sequence numbers
// must abort rather than proceed with a missing or duplicate number.
var ErrTransaction = errors.New("store: transaction failed after retries")

// Unsubscribe releases a standing watch. Implementations must tolerate
// being called more than once; only the first call does work.
type Unsubscribe func() error

// Collection is one named, ordered collection of documents of type T.
//
// List performs a one-shot read returning all documents in the
// collection's declared order. Watch opens a standing subscription:
// the returned channel carries a full, consistently-ordered snapshot of
// the collection after every change, and is closed when the watch ends.
// Intermediate states may be coalesced; each delivered snapshot
// reflects a consistent remote read at some point in time.
//
// Writes are not transactional; concurrent writers to the same document
// are last-write-wins at the document level.
type Collection[T any] interface {
	// Name returns the remote collection name.
	Name() string

	List(ctx context.Context) ([]T, error)

	Watch(ctx context.Context) (<-chan []T, Unsubscribe, error)

	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id string) error
}

// Sequencer allocates monotonically increasing integers from a named
// counter document. Next returns current+1 and persists it atomically:
// no two calls, even concurrent, observe the same value for the same
// key. A counter that does not exist yet starts at zero, so the first
// allocation returns 1.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}
