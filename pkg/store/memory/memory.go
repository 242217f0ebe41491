// Package memory is an in-process implementation of the store contract
// with the same snapshot semantics as the SurrealDB implementation:
// ordered one-shot reads, full-collection snapshots on every change,
// snapshot coalescing for slow watchers. It backs unit tests and local
// development without a running database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

// Collection is an in-memory document table.
type Collection[T any] struct {
	name string
	id   func(*T) string
	less func(a, b *T) bool

	mu       sync.Mutex
	docs     map[string]T
	watchers map[int]chan []T
	nextID   int
}

// NewCollection creates an empty collection. id extracts a document's
// key; less defines the collection's declared sort order.
func NewCollection[T any](name string, id func(*T) string, less func(a, b *T) bool) *Collection[T] {
	return &Collection[T]{
		name:     name,
		id:       id,
		less:     less,
		docs:     make(map[string]T),
		watchers: make(map[int]chan []T),
	}
}

func (c *Collection[T]) Name() string { return c.name }

// snapshotLocked builds the ordered snapshot. Callers hold c.mu.
func (c *Collection[T]) snapshotLocked() []T {
	items := make([]T, 0, len(c.docs))
	for _, doc := range c.docs {
		items = append(items, doc)
	}
	sort.Slice(items, func(i, j int) bool {
		return c.less(&items[i], &items[j])
	})
	return items
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(), nil
}

func (c *Collection[T]) Watch(ctx context.Context) (<-chan []T, store.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	ch := make(chan []T, 1)
	c.watchers[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	unsubscribe := func() error {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
			close(ch)
		})
		return nil
	}

	// Tie the watch to the context the way the remote implementation
	// ties it to the connection.
	go func() {
		<-ctx.Done()
		_ = unsubscribe()
	}()

	return ch, unsubscribe, nil
}

// broadcastLocked pushes the current snapshot to every watcher,
// replacing any undelivered snapshot. Callers hold c.mu.
func (c *Collection[T]) broadcastLocked() {
	items := c.snapshotLocked()
	for _, ch := range c.watchers {
		select {
		case ch <- items:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- items:
			default:
			}
		}
	}
}

func (c *Collection[T]) Create(ctx context.Context, rec *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.id(rec)
	if key == "" {
		return fmt.Errorf("create in %s: empty id", c.name)
	}
	c.docs[key] = *rec
	c.broadcastLocked()
	return nil
}

func (c *Collection[T]) Update(ctx context.Context, rec *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.id(rec)
	if _, ok := c.docs[key]; !ok {
		return fmt.Errorf("update in %s: no document %s", c.name, key)
	}
	c.docs[key] = *rec
	c.broadcastLocked()
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("delete from %s: no document %s", c.name, id)
	}
	delete(c.docs, id)
	c.broadcastLocked()
	return nil
}

// WatcherCount reports the number of active watches; tests use it to
// prove that subscriptions do not leak.
func (c *Collection[T]) WatcherCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

// Sequencer is a mutex-guarded counter map with the same allocation
// guarantee as the transactional remote counter.
type Sequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewSequencer() *Sequencer {
	return &Sequencer{counters: make(map[string]int64)}
}

func (s *Sequencer) Next(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}
