package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

// fakeSource is a scriptable store.Collection for exercising the cache
// without a database.
type fakeSource[T any] struct {
	name    string
	listFn  func(ctx context.Context) ([]T, error)
	watchFn func(ctx context.Context) (<-chan []T, store.Unsubscribe, error)
}

func (f *fakeSource[T]) Name() string { return f.name }

func (f *fakeSource[T]) List(ctx context.Context) ([]T, error) {
	return f.listFn(ctx)
}

func (f *fakeSource[T]) Watch(ctx context.Context) (<-chan []T, store.Unsubscribe, error) {
	return f.watchFn(ctx)
}

func (f *fakeSource[T]) Create(ctx context.Context, rec *T) error   { return nil }
func (f *fakeSource[T]) Update(ctx context.Context, rec *T) error   { return nil }
func (f *fakeSource[T]) Delete(ctx context.Context, id string) error { return nil }

func countingSource(items []string, calls *atomic.Int64) *fakeSource[string] {
	return &fakeSource[string]{
		name: "things",
		listFn: func(ctx context.Context) ([]string, error) {
			calls.Add(1)
			return items, nil
		},
	}
}

func TestFetchServesCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	c := New[string](countingSource([]string{"a", "b"}, &calls))

	require.NoError(t, c.Fetch(ctx, false))
	require.NoError(t, c.Fetch(ctx, false))
	require.NoError(t, c.Fetch(ctx, false))

	assert.Equal(t, int64(1), calls.Load(), "fresh cache must not go remote")
	assert.Equal(t, []string{"a", "b"}, c.Items())
	assert.True(t, c.Fresh())
	assert.False(t, c.Loading())

	c.Invalidate()
	assert.False(t, c.Fresh())
	assert.Equal(t, []string{"a", "b"}, c.Items(), "invalidation keeps the snapshot")

	require.NoError(t, c.Fetch(ctx, false))
	assert.Equal(t, int64(2), calls.Load())
	assert.True(t, c.Fresh())
}

func TestFetchForceBypassesFreshness(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	c := New[string](countingSource([]string{"a"}, &calls))

	require.NoError(t, c.Fetch(ctx, false))
	require.NoError(t, c.Fetch(ctx, true))
	assert.Equal(t, int64(2), calls.Load())
}

func TestFetchConcurrentCallersShareOneRead(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	release := make(chan struct{})
	src := &fakeSource[string]{
		name: "things",
		listFn: func(ctx context.Context) ([]string, error) {
			calls.Add(1)
			<-release
			return []string{"a"}, nil
		},
	}
	c := New[string](src)

	first := make(chan error, 1)
	go func() { first <- c.Fetch(ctx, false) }()
	require.Eventually(t, c.Loading, time.Second, time.Millisecond)

	const waiters = 8
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Fetch(ctx, false)
		}(i)
	}

	close(release)
	require.NoError(t, <-first)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), calls.Load(), "waiters must join the in-flight read")
	assert.Equal(t, []string{"a"}, c.Items())
}

func TestFetchErrorServesStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	fail := false
	src := &fakeSource[string]{
		name: "things",
		listFn: func(ctx context.Context) ([]string, error) {
			if fail {
				return nil, boom
			}
			return []string{"a", "b"}, nil
		},
	}
	c := New[string](src)

	require.NoError(t, c.Fetch(ctx, false))
	fail = true

	err := c.ForceRefresh(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, c.Items(), "failed read must not drop the snapshot")
	assert.False(t, c.Fresh(), "a failed refresh leaves the cache stale")
	assert.False(t, c.Loading())

	// Recovery: the next successful fetch restores freshness.
	fail = false
	require.NoError(t, c.Fetch(ctx, false))
	assert.True(t, c.Fresh())
}

func TestFetchOverlappingForcedReadsNewestWins(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	entered := make(chan int, 2)
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	src := &fakeSource[string]{
		name: "things",
		listFn: func(ctx context.Context) ([]string, error) {
			n := int(calls.Add(1))
			entered <- n
			if n == 1 {
				<-releaseFirst
				return []string{"old"}, nil
			}
			<-releaseSecond
			return []string{"new"}, nil
		},
	}
	c := New[string](src)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.Fetch(ctx, true) }()
	<-entered
	go func() { defer wg.Done(); _ = c.Fetch(ctx, true) }()
	<-entered

	// The second (newer) read resolves first; the first read resolves
	// late and must not clobber it.
	close(releaseSecond)
	require.Eventually(t, func() bool {
		items := c.Items()
		return len(items) == 1 && items[0] == "new"
	}, time.Second, time.Millisecond)
	close(releaseFirst)
	wg.Wait()

	assert.Equal(t, []string{"new"}, c.Items(), "stale read applied over newer snapshot")
	assert.True(t, c.Fresh())
}

func TestSubscribeFoldsSnapshotsIntoCache(t *testing.T) {
	ctx := context.Background()
	snapshots := make(chan []string, 1)
	var unsubCalls atomic.Int64
	src := &fakeSource[string]{
		name: "things",
		watchFn: func(ctx context.Context) (<-chan []string, store.Unsubscribe, error) {
			return snapshots, func() error { unsubCalls.Add(1); return nil }, nil
		},
	}
	c := New[string](src)

	dispose, err := c.Subscribe(ctx)
	require.NoError(t, err)
	assert.True(t, c.Subscribed())
	assert.True(t, c.Loading(), "loading holds until the first snapshot lands")

	snapshots <- []string{"a"}
	require.Eventually(t, func() bool { return len(c.Items()) == 1 }, time.Second, time.Millisecond)
	assert.True(t, c.Fresh())
	assert.False(t, c.Loading())

	snapshots <- []string{"a", "b"}
	require.Eventually(t, func() bool { return len(c.Items()) == 2 }, time.Second, time.Millisecond)

	require.NoError(t, dispose())
	assert.False(t, c.Subscribed())

	// Disposal is idempotent.
	require.NoError(t, dispose())
	assert.Equal(t, int64(1), unsubCalls.Load())
}

func TestSubscribeSupersedesPreviousWatch(t *testing.T) {
	ctx := context.Background()
	var watches atomic.Int64
	var unsubs atomic.Int64
	src := &fakeSource[string]{
		name: "things",
		watchFn: func(ctx context.Context) (<-chan []string, store.Unsubscribe, error) {
			watches.Add(1)
			ch := make(chan []string, 1)
			return ch, func() error { unsubs.Add(1); return nil }, nil
		},
	}
	c := New[string](src)

	first, err := c.Subscribe(ctx)
	require.NoError(t, err)
	second, err := c.Subscribe(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), watches.Load())
	assert.Equal(t, int64(1), unsubs.Load(), "resubscribing disposes the previous watch")
	assert.True(t, c.Subscribed())

	// Disposing the superseded handle again is a no-op.
	require.NoError(t, first())
	assert.Equal(t, int64(1), unsubs.Load())
	assert.True(t, c.Subscribed())

	require.NoError(t, second())
	assert.Equal(t, int64(2), unsubs.Load())
	assert.False(t, c.Subscribed())
}

func TestSubscribeErrorLeavesCacheUsable(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("live query refused")
	var calls atomic.Int64
	src := &fakeSource[string]{
		name: "things",
		listFn: func(ctx context.Context) ([]string, error) {
			calls.Add(1)
			return []string{"a"}, nil
		},
		watchFn: func(ctx context.Context) (<-chan []string, store.Unsubscribe, error) {
			return nil, nil, boom
		},
	}
	c := New[string](src)

	_, err := c.Subscribe(ctx)
	require.ErrorIs(t, err, boom)
	assert.False(t, c.Subscribed())
	assert.False(t, c.Loading())

	// Fetch mode still works after a failed subscribe.
	require.NoError(t, c.Fetch(ctx, false))
	assert.Equal(t, []string{"a"}, c.Items())
}

func TestFetchNormalizesRecords(t *testing.T) {
	ctx := context.Background()
	pinned := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource[string]{
		name: "things",
		listFn: func(ctx context.Context) ([]string, error) {
			return []string{"", "x", ""}, nil
		},
	}
	c := New[string](src,
		WithClock[string](func() time.Time { return pinned }),
		WithNormalize[string](func(s *string, now time.Time) {
			if *s == "" {
				*s = now.UTC().Format(time.RFC3339)
			}
		}),
	)

	require.NoError(t, c.Fetch(ctx, false))
	assert.Equal(t, []string{"2024-03-01T12:00:00Z", "x", "2024-03-01T12:00:00Z"}, c.Items())
}
