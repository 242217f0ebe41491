// Package sequence produces globally unique, human-readable sequential
// identifiers backed by an atomic remote counter.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

// CounterInvoices is the counter key for invoice numbers.
const CounterInvoices = "invoices"

// Generator formats counter allocations into identifiers. The counter
// itself guarantees monotonicity and uniqueness; the generator only
// formats.
type Generator struct {
	seq store.Sequencer
	now func() time.Time
}

func NewGenerator(seq store.Sequencer) *Generator {
	return &Generator{seq: seq, now: time.Now}
}

// NewGeneratorAt pins the clock; tests use it to fix the year.
func NewGeneratorAt(seq store.Sequencer, now func() time.Time) *Generator {
	return &Generator{seq: seq, now: now}
}

// NextInvoiceNumber allocates the next invoice number, formatted as
// INV-<year>-NNNN with the sequence zero-padded to four digits. Past
// 9999 in a year the number simply widens to five or more digits; the
// format is not capped. A fresh counter starts at one. If the counter
// transaction cannot commit within its retry budget, the error wraps
// [store.ErrTransaction] and the caller must abort invoice creation.
func (g *Generator) NextInvoiceNumber(ctx context.Context) (string, error) {
	n, err := g.seq.Next(ctx, CounterInvoices)
	if err != nil {
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%d-%04d", g.now().Year(), n), nil
}
