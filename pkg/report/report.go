// Package report maintains a relational mirror of billing data for
// reporting queries that the document database is a poor fit for.
//
// Invoices and payments flow one way: snapshots from the cache layer
// are upserted into Postgres rows, and aggregate reports (currently
// outstanding balances per client) are computed with SQL. The document
// database stays the source of truth; the mirror is derived data and
// can be rebuilt from a full re-sync at any time.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
)

// InvoiceRow is the relational projection of an invoice.
type InvoiceRow struct {
	ID         string `gorm:"type:uuid;primary_key"`
	Number     string `gorm:"index"`
	ClientID   string `gorm:"type:uuid;index"`
	ClientName string
	Total      float64
	Status     string
	IssuedAt   time.Time
	SyncedAt   time.Time
}

// PaymentRow is the relational projection of a payment.
type PaymentRow struct {
	ID         string `gorm:"type:uuid;primary_key"`
	InvoiceID  string `gorm:"type:uuid;index"`
	ClientID   string `gorm:"type:uuid;index"`
	Amount     float64
	ReceivedAt time.Time
	SyncedAt   time.Time
}

// Mirror owns the reporting database handle.
type Mirror struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to Postgres and migrates the mirror tables.
func Open(dsn string, log zerolog.Logger) (*Mirror, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to reporting database: %w", err)
	}
	return NewWithDB(db, log)
}

// NewWithDB wraps an existing gorm handle; tests use it with their own
// driver.
func NewWithDB(db *gorm.DB, log zerolog.Logger) (*Mirror, error) {
	if err := db.AutoMigrate(&InvoiceRow{}, &PaymentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reporting tables: %w", err)
	}
	return &Mirror{db: db, log: log}, nil
}

// timeOf converts a cached timestamp, falling back to the zero time for
// documents that never carried the field.
func timeOf(ts models.Timestamp) time.Time {
	t, err := ts.Time()
	if err != nil {
		return time.Time{}
	}
	return t
}

// SyncInvoices upserts the given invoice snapshot. clientNames maps
// client IDs to display names for denormalized reporting output;
// unknown clients keep an empty name rather than failing the sync.
func (m *Mirror) SyncInvoices(ctx context.Context, invoices []models.Invoice, clientNames map[string]string) error {
	if len(invoices) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]InvoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, InvoiceRow{
			ID:         inv.ID.String(),
			Number:     inv.Number,
			ClientID:   inv.ClientID.String(),
			ClientName: clientNames[inv.ClientID.String()],
			Total:      inv.Total,
			Status:     string(inv.Status),
			IssuedAt:   timeOf(inv.IssuedAt),
			SyncedAt:   now,
		})
	}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("sync invoices: %w", err)
	}
	m.log.Debug().Int("rows", len(rows)).Msg("invoice mirror synced")
	return nil
}

// SyncPayments upserts the given payment snapshot.
func (m *Mirror) SyncPayments(ctx context.Context, payments []models.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]PaymentRow, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, PaymentRow{
			ID:         p.ID.String(),
			InvoiceID:  p.InvoiceID.String(),
			ClientID:   p.ClientID.String(),
			Amount:     p.Amount,
			ReceivedAt: timeOf(p.ReceivedAt),
			SyncedAt:   now,
		})
	}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("sync payments: %w", err)
	}
	m.log.Debug().Int("rows", len(rows)).Msg("payment mirror synced")
	return nil
}

// OutstandingBalances aggregates invoiced minus paid per client across
// the mirror. Clients with no invoices do not appear; a client whose
// payments cover all invoices appears with a zero balance.
func (m *Mirror) OutstandingBalances(ctx context.Context) ([]models.OutstandingBalance, error) {
	var results []models.OutstandingBalance
	err := m.db.WithContext(ctx).Raw(`
		SELECT i.client_id                              AS client_id,
		       MAX(i.client_name)                       AS client_name,
		       SUM(i.total)                             AS invoiced,
		       COALESCE((
		           SELECT SUM(p.amount)
		           FROM payment_rows p
		           WHERE p.client_id = i.client_id
		       ), 0)                                    AS paid
		FROM invoice_rows i
		GROUP BY i.client_id
		ORDER BY client_name`).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("outstanding balances: %w", err)
	}
	for i := range results {
		results[i].Balance = results[i].Invoiced - results[i].Paid
	}
	return results, nil
}
