// Package gateway composes the sqlguard pipeline with a read-only backend:
// validate, enforce the row limit, execute, and normalize the result into a
// uniform JSON-safe shape.
package gateway

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/datasource"
	"github.com/querylens-io/starmart-engine/pkg/logging"
	"github.com/querylens-io/starmart-engine/pkg/sqlguard"
)

// Gateway is safe for concurrent use: the policy is immutable and no state
// is shared between requests.
type Gateway struct {
	backend datasource.ReadOnlyBackend
	policy  sqlguard.Policy
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Gateway. A timeout of zero disables the per-request
// deadline; if logger is nil, a no-op logger is used.
func New(backend datasource.ReadOnlyBackend, policy sqlguard.Policy, timeout time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		backend: backend,
		policy:  policy,
		timeout: timeout,
		logger:  logger,
	}
}

// Policy returns the gateway's validation policy.
func (g *Gateway) Policy() sqlguard.Policy {
	return g.policy
}

// Result is the uniform result shape returned to callers. Row values are
// JSON-safe scalars: strings, numbers, booleans, or nil.
type Result struct {
	Query    string           `json:"query"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"data"`
	RowCount int              `json:"row_count"`
}

// Execute validates rawQuery against the policy, enforces the row limit,
// runs the query on the backend, and normalizes the result. Every failure
// is a *sqlguard.Rejection; validation failures never reach the backend.
func (g *Gateway) Execute(ctx context.Context, rawQuery string, requestedLimit int, params ...any) (*Result, error) {
	sanitized, rej := sqlguard.Validate(rawQuery, g.policy)
	if rej != nil {
		g.logger.Debug("query rejected",
			zap.String("kind", rej.Kind.String()),
			zap.String("reason", rej.Error()))
		return nil, rej
	}

	if findings := sqlguard.CheckParameters(params); len(findings) > 0 {
		f := findings[0]
		g.logger.Warn("query parameter flagged as SQL injection",
			zap.Int("position", f.Position),
			zap.String("fingerprint", f.Fingerprint))
		return nil, &sqlguard.Rejection{
			Kind:    sqlguard.KindDangerousPattern,
			Pattern: "sql injection in parameter",
			Detail:  "fingerprint " + f.Fingerprint,
		}
	}

	limited := sqlguard.EnforceLimit(sanitized, requestedLimit, g.policy)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.backend.ExecuteReadOnly(ctx, limited.Text, params...)
	if err != nil {
		rej := classifyBackendError(err)
		g.logger.Info("query execution failed",
			zap.String("kind", rej.Kind.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, rej
	}

	// The LIMIT clause already bounds the result; truncating here is the
	// final guarantee if the backend ignored it.
	rows := raw.Rows
	if len(rows) > limited.Limit {
		rows = rows[:limited.Limit]
	}

	coerced := make([]map[string]any, len(rows))
	for i, row := range rows {
		out := make(map[string]any, len(row))
		for col, val := range row {
			out[col] = coerceScalar(val)
		}
		coerced[i] = out
	}

	g.logger.Debug("query executed",
		zap.String("query", logging.SanitizeQuery(limited.Text)),
		zap.Int("row_count", len(coerced)),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		Query:    limited.Text,
		Columns:  raw.Columns,
		Rows:     coerced,
		RowCount: len(coerced),
	}, nil
}

// TableSchema describes one allow-listed table for callers.
type TableSchema struct {
	Columns     []datasource.Column `json:"columns"`
	ColumnCount int                 `json:"column_count"`
}

// DescribeAllowedTables introspects every table on the allow-list. It never
// executes caller-supplied text.
func (g *Gateway) DescribeAllowedTables(ctx context.Context) (map[string]TableSchema, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	schemas := make(map[string]TableSchema, len(g.policy.AllowedTableNames()))
	for _, table := range g.policy.AllowedTableNames() {
		columns, err := g.backend.IntrospectColumns(ctx, table)
		if err != nil {
			return nil, classifyBackendError(err)
		}
		schemas[table] = TableSchema{Columns: columns, ColumnCount: len(columns)}
	}
	return schemas, nil
}

// classifyBackendError maps a backend failure onto the rejection taxonomy
// by message inspection, covering both the generic substrings and the
// phrasing PostgreSQL and SQL Server actually use.
func classifyBackendError(err error) *sqlguard.Rejection {
	if errors.Is(err, context.DeadlineExceeded) {
		return &sqlguard.Rejection{Kind: sqlguard.KindTimeout}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "syntax error"):
		return &sqlguard.Rejection{Kind: sqlguard.KindSyntaxError, Detail: err.Error()}
	case strings.Contains(msg, "no such table"),
		strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "invalid object name"):
		return &sqlguard.Rejection{Kind: sqlguard.KindTableNotFound, Detail: err.Error()}
	case strings.Contains(msg, "no such column"),
		strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "invalid column name"):
		return &sqlguard.Rejection{Kind: sqlguard.KindColumnNotFound, Detail: err.Error()}
	default:
		return &sqlguard.Rejection{Kind: sqlguard.KindExecutionFailure, Detail: err.Error()}
	}
}

// coerceScalar converts a backend-native value into a JSON-safe scalar.
// Temporal values become ISO-8601 strings; binary values become best-effort
// UTF-8 text with invalid bytes dropped.
func coerceScalar(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []byte:
		return strings.ToValidUTF8(string(val), "")
	case driver.Valuer:
		// pgx returns driver-level wrappers for types like NUMERIC; unwrap
		// and coerce whatever comes out.
		unwrapped, err := val.Value()
		if err != nil {
			return nil
		}
		if _, again := unwrapped.(driver.Valuer); again {
			return nil // refuse to loop on self-returning wrappers
		}
		return coerceScalar(unwrapped)
	default:
		return v
	}
}
