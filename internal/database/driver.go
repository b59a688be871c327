package database

import "context"

// Driver defines the operations the probe needs from a warehouse
// connection. One invocation opens one connection, runs one query and
// closes it; implementations do not need to be safe for concurrent use.
type Driver interface {
	// Connect opens and authenticates a session to the warehouse.
	Connect(ctx context.Context, cfg ConnConfig) error

	// Close releases the connection. Safe to call when never connected.
	Close() error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// UseWarehouse selects the active compute warehouse for the session.
	UseWarehouse(ctx context.Context, name string) error

	// ExecuteQuery runs a SQL statement with optional bind arguments and
	// fetches the complete result set.
	ExecuteQuery(ctx context.Context, query string, args ...any) (*QueryResult, error)
}
