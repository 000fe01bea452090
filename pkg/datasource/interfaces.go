// Package datasource defines the read-only query backend contract the
// execution gateway delegates to, plus the registry adapters use to make
// themselves available by type.
package datasource

import "context"

// ReadOnlyBackend runs validated SELECT statements against a relational
// database and reports schema information for the allow-listed tables.
// Each implementation owns its connection and must be closed when done.
type ReadOnlyBackend interface {
	// ExecuteReadOnly runs a single SELECT statement and returns its result
	// set. Optional positional parameters bind to $1..$n placeholders.
	// The statement is assumed to have passed the sqlguard pipeline; the
	// implementation must still refuse writes at the session level where
	// the dialect allows it.
	ExecuteReadOnly(ctx context.Context, sqlText string, params ...any) (*QueryResult, error)

	// IntrospectColumns returns column metadata for a table, falling back
	// to an empty-result probe (SELECT * FROM table LIMIT 0) with unknown
	// types when catalog introspection is unavailable. The table name is
	// quoted by the implementation; caller-supplied SQL is never executed.
	IntrospectColumns(ctx context.Context, tableName string) ([]Column, error)

	// Close releases the database connection.
	Close() error
}

// Column describes one column of an introspected table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// QueryResult holds the raw result set of a read-only execution. Values are
// backend-native; the gateway is responsible for JSON-safe coercion.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}
