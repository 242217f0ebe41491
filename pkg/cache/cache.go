// Package cache implements the portal's entity cache stores.
//
// Every entity collection in the portal (clients, leads, invoices, …)
// is served through one [Collection] instance: an in-memory ordered
// snapshot of a remote document collection together with freshness and
// loading flags. A collection is used in one of two modes. Fetch mode
// reads the remote collection once and serves the cached snapshot until
// a caller forces a refresh or invalidates it after a mutation.
// Subscribe mode holds a standing watch on the remote collection and
// folds every pushed snapshot into the cache, keeping it permanently
// fresh.
//
// Remote failures are never fatal: a failed read leaves the previous
// snapshot in place so consumers keep rendering stale data instead of
// going blank, and the error is logged and returned for optional
// surfacing.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

// Collection is the cached view of one remote entity collection.
// All methods are safe for concurrent use; each instance owns its
// state exclusively and shares nothing with other collections.
type Collection[T any] struct {
	source    store.Collection[T]
	log       zerolog.Logger
	normalize func(*T, time.Time)
	now       func() time.Time

	mu         sync.Mutex
	items      []T
	fresh      bool
	loading    bool
	inflight   *fetch
	fetchSeq   uint64
	appliedSeq uint64
	watch      *watchHandle

	// subMu serializes Subscribe calls so overlapping subscriptions
	// can never race into two active watches.
	subMu sync.Mutex
}

// fetch is one in-flight remote read; callers that decline to force a
// duplicate read await it instead.
type fetch struct {
	done chan struct{}
	err  error
}

// watchHandle wraps a watch disposer so disposal is idempotent no
// matter how many paths call it.
type watchHandle struct {
	once   sync.Once
	cancel store.Unsubscribe
	err    error
}

func (h *watchHandle) dispose() error {
	h.once.Do(func() {
		h.err = h.cancel()
	})
	return h.err
}

// Option configures a Collection.
type Option[T any] func(*Collection[T])

// WithNormalize installs the normalization hook applied to every record
// entering the cache. The hook receives the read time for defaulting
// absent timestamps.
func WithNormalize[T any](fn func(*T, time.Time)) Option[T] {
	return func(c *Collection[T]) { c.normalize = fn }
}

// WithLogger sets the logger used for non-fatal remote failures.
func WithLogger[T any](log zerolog.Logger) Option[T] {
	return func(c *Collection[T]) { c.log = log }
}

// WithClock overrides the time source; tests pin it.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Collection[T]) { c.now = now }
}

// New creates an empty, stale, not-loading collection over source.
func New[T any](source store.Collection[T], opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		source: source,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Items returns the current snapshot. Callers must treat it as
// read-only; it is replaced wholesale, never mutated in place.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// Fresh reports whether the snapshot reflects at least one successful
// remote read and may be served without remote I/O.
func (c *Collection[T]) Fresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fresh
}

// Loading reports whether a remote read or initial watch is in flight.
func (c *Collection[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Invalidate clears freshness so the next non-forced Fetch goes remote.
// The snapshot itself is kept for stale serving.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh = false
}

// Fetch populates the cache from the remote collection.
//
// When the cache is fresh and force is false it returns immediately
// without remote I/O. When a read is already in flight, a non-forced
// call awaits that read's outcome instead of issuing a second one; a
// forced call starts its own read, and whichever read is newer wins the
// cache once both settle. On failure the previous snapshot and
// freshness are left untouched, loading clears, and the error is both
// logged and returned.
func (c *Collection[T]) Fetch(ctx context.Context, force bool) error {
	c.mu.Lock()
	if !force && c.fresh {
		c.mu.Unlock()
		return nil
	}
	if c.inflight != nil && !force {
		fl := c.inflight
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.fetchSeq++
	gen := c.fetchSeq
	fl := &fetch{done: make(chan struct{})}
	c.inflight = fl
	c.loading = true
	c.mu.Unlock()

	items, err := c.source.List(ctx)
	now := c.now()

	c.mu.Lock()
	if err == nil {
		if c.normalize != nil {
			for i := range items {
				c.normalize(&items[i], now)
			}
		}
		// An older read that resolves after a newer one must not
		// clobber the newer snapshot.
		if gen > c.appliedSeq {
			c.appliedSeq = gen
			c.items = items
			c.fresh = true
		}
	} else {
		c.log.Error().Err(err).Str("collection", c.source.Name()).Msg("fetch failed, serving stale cache")
	}
	if c.inflight == fl {
		c.inflight = nil
		c.loading = false
	}
	c.mu.Unlock()

	fl.err = err
	close(fl.done)
	return err
}

// ForceRefresh invalidates the cache and performs a forced fetch. It is
// the post-mutation hook for collections that are not watch-driven;
// watch-driven collections receive the change as a pushed snapshot.
func (c *Collection[T]) ForceRefresh(ctx context.Context) error {
	c.Invalidate()
	return c.Fetch(ctx, true)
}

// Subscribe switches the collection to live mode: a standing watch on
// the remote collection whose every snapshot replaces the cached items,
// marking the cache fresh. At most one watch is active per collection;
// subscribing again first disposes the previous watch, so overlapping
// calls cannot leak. The returned disposer is idempotent and must be
// called when the consumer is done; an undisposed watch holds its
// server-side live query for the life of the connection.
func (c *Collection[T]) Subscribe(ctx context.Context) (store.Unsubscribe, error) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.mu.Lock()
	old := c.watch
	c.mu.Unlock()
	if old != nil {
		if err := old.dispose(); err != nil {
			c.log.Warn().Err(err).Str("collection", c.source.Name()).Msg("disposing superseded watch")
		}
	}

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	snapshots, unsubscribe, err := c.source.Watch(ctx)
	if err != nil {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.log.Error().Err(err).Str("collection", c.source.Name()).Msg("subscribe failed")
		return nil, err
	}

	h := &watchHandle{cancel: unsubscribe}
	c.mu.Lock()
	c.watch = h
	c.mu.Unlock()

	go func() {
		for items := range snapshots {
			now := c.now()
			c.mu.Lock()
			if c.watch != h {
				// Superseded while a snapshot was in transit.
				c.mu.Unlock()
				return
			}
			if c.normalize != nil {
				for i := range items {
					c.normalize(&items[i], now)
				}
			}
			c.fetchSeq++
			c.appliedSeq = c.fetchSeq
			c.items = items
			c.fresh = true
			c.loading = false
			c.mu.Unlock()
		}
	}()

	disposer := func() error {
		err := h.dispose()
		c.mu.Lock()
		if c.watch == h {
			c.watch = nil
			c.loading = false
		}
		c.mu.Unlock()
		return err
	}
	return disposer, nil
}

// Subscribed reports whether a watch is currently active.
func (c *Collection[T]) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watch != nil
}
