// Package portal is the ParanovaX application: configuration, the
// cache store registry, the permission-guarded HTTP API and the server
// lifecycle. Business state lives in the remote document database;
// this package only wires the cache, permission, sequence and reporting
// layers together and exposes them over HTTP.
package portal

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Paraserot/ParanovaX-sub001/pkg/report"
	"github.com/Paraserot/ParanovaX-sub001/pkg/sequence"
	"github.com/Paraserot/ParanovaX-sub001/pkg/store/surreal"
)

// Config holds database and server configuration.
type Config struct {
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// PostgresDSN configures the reporting mirror; empty disables
	// reporting endpoints.
	PostgresDSN string

	ServerPort string
	LogLevel   string
}

// App holds the application state for one session.
type App struct {
	config  *Config
	log     zerolog.Logger
	backend *Backend
	stores  *Stores
	seq     *sequence.Generator
	mirror  *report.Mirror

	remote *surreal.Store
}

// New connects to the document database, builds the cache registry and
// the sequence generator, and opens the reporting mirror when
// configured.
func New(ctx context.Context, config *Config) (*App, error) {
	log := newLogger(config.LogLevel)

	remote, err := surreal.Open(ctx, surreal.Config{
		URL:       config.SurrealDBURL,
		Namespace: config.SurrealDBNS,
		Database:  config.SurrealDBDB,
		Username:  config.SurrealDBUser,
		Password:  config.SurrealDBPass,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}
	log.Info().Str("url", config.SurrealDBURL).Msg("connected to SurrealDB")

	backend := NewSurrealBackend(remote)

	app := &App{
		config:  config,
		log:     log,
		backend: backend,
		stores:  NewStores(backend, log),
		seq:     sequence.NewGenerator(backend.Sequencer),
		remote:  remote,
	}

	if config.PostgresDSN != "" {
		mirror, err := report.Open(config.PostgresDSN, log)
		if err != nil {
			remote.Close()
			return nil, fmt.Errorf("failed to open reporting mirror: %w", err)
		}
		app.mirror = mirror
		log.Info().Msg("reporting mirror connected")
	}

	return app, nil
}

// NewWithBackend builds an app over an injected backend; tests use it
// with the in-memory implementation.
func NewWithBackend(config *Config, backend *Backend, log zerolog.Logger) *App {
	return &App{
		config:  config,
		log:     log,
		backend: backend,
		stores:  NewStores(backend, log),
		seq:     sequence.NewGenerator(backend.Sequencer),
	}
}

// Stores exposes the cache registry; tests and embedding callers
// consume it directly.
func (a *App) Stores() *Stores { return a.stores }

// Close releases the database connections.
func (a *App) Close() error {
	if a.remote != nil {
		return a.remote.Close()
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// getEnv returns the environment variable value, or fallback when it is
// unset or empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
