package surreal

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	smodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
)

// openTestStore connects to the database named by SURREALDB_URL, or
// skips when the environment provides none. Each run uses a dedicated
// database so parallel CI jobs do not collide.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SURREALDB_URL")
	if url == "" {
		t.Skip("SURREALDB_URL not set; skipping integration test")
	}

	ctx := context.Background()
	st, err := Open(ctx, Config{
		URL:       url,
		Namespace: "paranovax_test",
		Database:  "store_" + time.Now().UTC().Format("20060102150405"),
		Username:  envOr("SURREALDB_USER", "root"),
		Password:  envOr("SURREALDB_PASS", "root"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func clientCollection(st *Store) *Collection[models.Client] {
	return NewCollection(st, models.TableClients, "name", false,
		func(c *models.Client) smodels.RecordID { return c.ID.RecordID() })
}

func TestIntegrationCollectionCRUD(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clients := clientCollection(st)

	a := models.Client{ID: models.NewClientID(), Name: "Beta Corp", Email: "b@example.com", Active: true}
	b := models.Client{ID: models.NewClientID(), Name: "Alpha Ltd", Email: "a@example.com", Active: true}
	a.Normalize(time.Now())
	b.Normalize(time.Now())
	require.NoError(t, clients.Create(ctx, &a))
	require.NoError(t, clients.Create(ctx, &b))

	items, err := clients.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha Ltd", items[0].Name, "declared order is by name ascending")
	assert.Equal(t, "Beta Corp", items[1].Name)

	a.Name = "Beta Corporation"
	require.NoError(t, clients.Update(ctx, &a))
	items, err = clients.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Beta Corporation", items[1].Name)

	require.NoError(t, clients.Delete(ctx, b.ID.String()))
	items, err = clients.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestIntegrationWatchStreamsSnapshots(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clients := clientCollection(st)

	snapshots, unsubscribe, err := clients.Watch(ctx)
	require.NoError(t, err)
	defer unsubscribe()

	initial := <-snapshots
	assert.Empty(t, initial)

	c := models.Client{ID: models.NewClientID(), Name: "Acme", Email: "x@acme.test", Active: true}
	c.Normalize(time.Now())
	require.NoError(t, clients.Create(ctx, &c))

	select {
	case items := <-snapshots:
		require.Len(t, items, 1)
		assert.Equal(t, "Acme", items[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after create")
	}

	require.NoError(t, unsubscribe())
	require.NoError(t, unsubscribe(), "unsubscribe must be idempotent")
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"write conflict", errors.New("The transaction can be retried: write conflict"), true},
		{"transaction failure", errors.New("There was a problem with a datastore transaction"), true},
		{"auth failure", errors.New("There was a problem with authentication"), false},
		{"parse error", errors.New("Parse error on line 1"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isConflict(tc.err))
		})
	}
}

func TestIntegrationSequencer(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	seq := NewSequencer(st)

	first, err := seq.Next(ctx, "invoices")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := seq.Next(ctx, "invoices")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	other, err := seq.Next(ctx, "receipts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "counter keys are independent")
}
