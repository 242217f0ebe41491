package portal

import (
	"context"
	"flag"
	"fmt"
)

// Command is a parsed subcommand.
type Command interface {
	isCommand()
}

// RunCommand starts the portal server.
type RunCommand struct{}

func (*RunCommand) isCommand() {}

// Parse parses command line arguments into a command and the shared
// application configuration. Database settings come from the
// environment; flags cover what differs between deployments of the
// same environment.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("paranovax", flag.ContinueOnError)

	var (
		port     = flagSet.String("port", "8080", "Server port")
		logLevel = flagSet.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remaining := flagSet.Args()
	if len(remaining) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: paranovax [flags] <command>

Commands:
  run       Start the ParanovaX portal server

Examples:
  paranovax run
  paranovax -port=8090 run
  paranovax -log-level=debug run`)
	}

	var cmd Command
	switch remaining[0] {
	case "run":
		cmd = &RunCommand{}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run", remaining[0])
	}

	config := &Config{
		ServerPort:    *port,
		LogLevel:      *logLevel,
		SurrealDBURL:  getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNS:   getEnv("SURREALDB_NS", "paranovax"),
		SurrealDBDB:   getEnv("SURREALDB_DB", "paranovax"),
		SurrealDBUser: getEnv("SURREALDB_USER", "root"),
		SurrealDBPass: getEnv("SURREALDB_PASS", "root"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
	}

	return cmd, config, nil
}

// Main is the entry point shared by the binary and tests: parse,
// construct, execute.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch cmd.(type) {
	case *RunCommand:
		if err := app.Run(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
	return nil
}
