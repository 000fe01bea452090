package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/datasource"
	"github.com/querylens-io/starmart-engine/pkg/logging"
)

// Backend provides read-only query execution against PostgreSQL.
type Backend struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a PostgreSQL backend with a read-only connection pool.
// If logger is nil, a no-op logger is used.
func New(ctx context.Context, cfg datasource.BackendConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	// Every session refuses writes even if a statement slips past the guard.
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres warehouse",
		zap.String("conn", logging.SanitizeConnectionString(connectionString(cfg))))
	return &Backend{pool: pool, logger: logger}, nil
}

// NewFromPool wraps an existing pool (for tests or shared pools).
func NewFromPool(pool *pgxpool.Pool, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{pool: pool, logger: logger}
}

// ExecuteReadOnly runs a SELECT statement and collects the full result set.
func (b *Backend) ExecuteReadOnly(ctx context.Context, sqlText string, params ...any) (*datasource.QueryResult, error) {
	rows, err := b.pool.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &datasource.QueryResult{Columns: columns, Rows: resultRows}, nil
}

// IntrospectColumns reads column metadata from information_schema, probing
// the table with an empty-result SELECT when the catalog reports nothing.
func (b *Backend) IntrospectColumns(ctx context.Context, tableName string) ([]datasource.Column, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := b.pool.Query(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.Column
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, datasource.Column{
			Name:     name,
			DataType: dataType,
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if len(columns) == 0 {
		return b.probeColumns(ctx, tableName)
	}
	return columns, nil
}

// probeColumns discovers column names with an empty-result SELECT. Types
// are reported as unknown. The table name is identifier-quoted; no
// caller-supplied SQL reaches this path.
func (b *Backend) probeColumns(ctx context.Context, tableName string) ([]datasource.Column, error) {
	probe := fmt.Sprintf("SELECT * FROM %s LIMIT 0", pgx.Identifier{tableName}.Sanitize())

	rows, err := b.pool.Query(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("probe table %q: %w", tableName, err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]datasource.Column, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.Column{
			Name:     string(fd.Name),
			DataType: "unknown",
			Nullable: true,
		}
	}
	return columns, nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

var _ datasource.ReadOnlyBackend = (*Backend)(nil)
