package sequence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store/memory"
)

func pinnedYear(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, 6, 15, 10, 0, 0, 0, time.UTC)
	}
}

func TestNextInvoiceNumberFormat(t *testing.T) {
	ctx := context.Background()
	g := NewGeneratorAt(memory.NewSequencer(), pinnedYear(2024))

	first, err := g.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0001", first)

	second, err := g.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0002", second)
}

func TestNextInvoiceNumberWidensPastPadding(t *testing.T) {
	ctx := context.Background()
	seq := memory.NewSequencer()
	for i := 0; i < 9999; i++ {
		_, err := seq.Next(ctx, CounterInvoices)
		require.NoError(t, err)
	}

	g := NewGeneratorAt(seq, pinnedYear(2024))
	n, err := g.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-10000", n)
}

func TestNextInvoiceNumberConcurrentAllocationsAreUnique(t *testing.T) {
	ctx := context.Background()
	g := NewGeneratorAt(memory.NewSequencer(), pinnedYear(2024))

	const n = 50
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			num, err := g.NextInvoiceNumber(ctx)
			assert.NoError(t, err)
			results[i] = num
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, num := range results {
		assert.False(t, seen[num], "duplicate invoice number %s", num)
		seen[num] = true
	}
	// Every number in 1..n was handed out exactly once, no gaps.
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("INV-2024-%04d", i)])
	}
}

type failingSequencer struct{}

func (failingSequencer) Next(ctx context.Context, key string) (int64, error) {
	return 0, fmt.Errorf("counter %s: retries exhausted: %w", key, store.ErrTransaction)
}

func TestNextInvoiceNumberPropagatesCounterFailure(t *testing.T) {
	g := NewGenerator(failingSequencer{})

	_, err := g.NextInvoiceNumber(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTransaction)
	assert.Contains(t, err.Error(), "allocate invoice number")
}
