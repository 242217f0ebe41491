// Package surreal implements the store contract against SurrealDB.
//
// The connection is configured the long way round instead of using
// FromEndpointURLString so that the surrealcbor codec handles all
// marshaling: without it, datetime values and record links round-trip
// incorrectly between Go types and SurrealDB's internal CBOR format.
// Live queries back the watch side of the contract; each change
// notification triggers a re-read of the full collection so that every
// delivered snapshot is a consistent ordered read, matching what a
// one-shot List would have returned at that moment.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	smodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/Paraserot/ParanovaX-sub001/pkg/models"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store"
)

// Config holds the connection settings for the document database.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store owns one SurrealDB connection shared by all collections.
type Store struct {
	db  *surrealdb.DB
	log zerolog.Logger
}

// Open connects, authenticates and selects the namespace/database.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// surrealcbor is required for correct datetime and RecordID
	// round-tripping; the default codec mangles both.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close tears down the shared connection. Any watches still running are
// terminated by the server when the connection drops.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// Collection is one SurrealDB table viewed through the store contract.
type Collection[T any] struct {
	st      *Store
	table   string
	orderBy string
	desc    bool
	rid     func(*T) smodels.RecordID
}

// NewCollection declares a collection over the given table, ordered by
// the given field. rid extracts a record's RecordID for updates.
// Table and order field names come from code, never user input, and are
// validated as plain identifiers because they are interpolated into
// query text.
func NewCollection[T any](st *Store, table, orderBy string, desc bool, rid func(*T) smodels.RecordID) *Collection[T] {
	mustIdent(table)
	mustIdent(orderBy)
	return &Collection[T]{st: st, table: table, orderBy: orderBy, desc: desc, rid: rid}
}

func mustIdent(s string) {
	if s == "" {
		panic("surreal: empty identifier")
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		panic(fmt.Sprintf("surreal: invalid identifier %q", s))
	}
}

func (c *Collection[T]) Name() string { return c.table }

func (c *Collection[T]) direction() string {
	if c.desc {
		return "DESC"
	}
	return "ASC"
}

// List performs a one-shot ordered read of the whole collection.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	stmt := fmt.Sprintf("SELECT * FROM %s ORDER BY %s %s", c.table, c.orderBy, c.direction())
	res, err := surrealdb.Query[[]T](ctx, c.st.db, stmt, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	if res == nil || len(*res) == 0 {
		return []T{}, nil
	}
	items := (*res)[0].Result
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Watch opens a live query on the table. The returned channel carries a
// full ordered snapshot after every remote change, coalescing bursts:
// if the consumer is slow, intermediate snapshots are dropped and only
// the newest is delivered. The channel is closed when the watch ends.
func (c *Collection[T]) Watch(ctx context.Context) (<-chan []T, store.Unsubscribe, error) {
	stmt := fmt.Sprintf("LIVE SELECT * FROM %s", c.table)
	res, err := surrealdb.Query[smodels.UUID](ctx, c.st.db, stmt, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", c.table, err)
	}
	if res == nil || len(*res) == 0 {
		return nil, nil, fmt.Errorf("watch %s: no live query id returned", c.table)
	}
	liveID := (*res)[0].Result

	notifications, err := c.st.db.LiveNotifications(liveID.String())
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", c.table, err)
	}

	out := make(chan []T, 1)
	stop := make(chan struct{})

	go func() {
		defer close(out)

		// Seed the watch with the current state so consumers do not
		// wait for the first remote change.
		if items, err := c.List(ctx); err == nil {
			deliver(out, items)
		} else {
			c.st.log.Warn().Err(err).Str("table", c.table).Msg("initial snapshot failed")
		}

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case _, ok := <-notifications:
				if !ok {
					return
				}
				items, err := c.List(ctx)
				if err != nil {
					c.st.log.Warn().Err(err).Str("table", c.table).Msg("snapshot re-read failed")
					continue
				}
				deliver(out, items)
			}
		}
	}()

	unsubscribe := func() error {
		select {
		case <-stop:
			return nil
		default:
		}
		close(stop)
		killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := surrealdb.Query[any](killCtx, c.st.db, "KILL $id", map[string]any{"id": liveID}); err != nil {
			return fmt.Errorf("kill live query on %s: %w", c.table, err)
		}
		return nil
	}

	return out, unsubscribe, nil
}

// deliver replaces any pending snapshot instead of blocking; the newest
// snapshot always wins.
func deliver[T any](out chan []T, items []T) {
	for {
		select {
		case out <- items:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

func (c *Collection[T]) Create(ctx context.Context, rec *T) error {
	if _, err := surrealdb.Create[T](ctx, c.st.db, c.table, rec); err != nil {
		return fmt.Errorf("create in %s: %w", c.table, err)
	}
	return nil
}

func (c *Collection[T]) Update(ctx context.Context, rec *T) error {
	if _, err := surrealdb.Update[T](ctx, c.st.db, c.rid(rec), rec); err != nil {
		return fmt.Errorf("update in %s: %w", c.table, err)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	rid := smodels.RecordID{Table: c.table, ID: id}
	if _, err := surrealdb.Delete[T](ctx, c.st.db, rid); err != nil {
		return fmt.Errorf("delete from %s: %w", c.table, err)
	}
	return nil
}

// Sequencer allocates sequence numbers from counter documents using a
// single transactional statement per attempt. SurrealDB retries nothing
// on write conflict, so the loop here is the retry budget; exhaustion
// surfaces as store.ErrTransaction.
type Sequencer struct {
	st *Store
}

func NewSequencer(st *Store) *Sequencer { return &Sequencer{st: st} }

const maxCounterRetries = 5

func (s *Sequencer) Next(ctx context.Context, key string) (int64, error) {
	type counter struct {
		Value int64 `cbor:"value"`
	}

	stmt := "UPSERT type::thing($tb, $key) SET value += 1 RETURN AFTER"
	params := map[string]any{"tb": models.TableCounters, "key": key}

	var lastErr error
	for attempt := 0; attempt < maxCounterRetries; attempt++ {
		res, err := surrealdb.Query[[]counter](ctx, s.st.db, stmt, params)
		if err == nil {
			if res == nil || len(*res) == 0 || len((*res)[0].Result) == 0 {
				return 0, fmt.Errorf("counter %s: upsert returned no row", key)
			}
			return (*res)[0].Result[0].Value, nil
		}
		if !isConflict(err) {
			return 0, fmt.Errorf("counter %s: %w", key, err)
		}
		lastErr = err
		s.st.log.Debug().Err(err).Str("counter", key).Int("attempt", attempt+1).
			Msg("counter transaction conflict, retrying")

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return 0, fmt.Errorf("%w: counter %s: %v", store.ErrTransaction, key, lastErr)
}

// isConflict sniffs write-conflict errors out of the RPC error text.
// The protocol carries no machine-readable code for them.
func isConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "conflict") || strings.Contains(msg, "retry") ||
		strings.Contains(msg, "transaction")
}
