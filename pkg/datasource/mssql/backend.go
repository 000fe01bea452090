package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
	"go.uber.org/zap"

	"github.com/querylens-io/starmart-engine/pkg/datasource"
	"github.com/querylens-io/starmart-engine/pkg/logging"
)

// Backend provides read-only query execution against SQL Server.
type Backend struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a SQL Server backend. If logger is nil, a no-op logger is used.
func New(ctx context.Context, cfg datasource.BackendConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}

	logger.Info("connected to sqlserver warehouse",
		zap.String("conn", logging.SanitizeConnectionString(connectionString(cfg))))
	return &Backend{db: db, logger: logger}, nil
}

var (
	limitClauseRe = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	placeholderRe = regexp.MustCompile(`\$(\d+)`)
)

// translateLimit strips the first LIMIT clause and wraps the remainder in a
// TOP-bounded subselect. Queries without a LIMIT clause pass through.
func translateLimit(sqlText string) string {
	m := limitClauseRe.FindStringSubmatchIndex(sqlText)
	if m == nil {
		return sqlText
	}

	n, err := strconv.Atoi(sqlText[m[2]:m[3]])
	if err != nil {
		return sqlText
	}

	stripped := sqlText[:m[0]] + sqlText[m[1]:]
	return fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", n, stripped)
}

// translatePlaceholders rewrites $1..$n placeholders into @p1..@pn.
func translatePlaceholders(sqlText string) string {
	return placeholderRe.ReplaceAllString(sqlText, "@p$1")
}

// ExecuteReadOnly runs a SELECT statement and collects the full result set.
func (b *Backend) ExecuteReadOnly(ctx context.Context, sqlText string, params ...any) (*datasource.QueryResult, error) {
	queryToRun := translatePlaceholders(translateLimit(sqlText))

	rows, err := b.db.QueryContext(ctx, queryToRun, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
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

// IntrospectColumns reads column metadata from INFORMATION_SCHEMA, probing
// with TOP 0 when the catalog reports nothing.
func (b *Backend) IntrospectColumns(ctx context.Context, tableName string) ([]datasource.Column, error) {
	const query = `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @p1
		ORDER BY ORDINAL_POSITION
	`

	rows, err := b.db.QueryContext(ctx, query, tableName)
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

func (b *Backend) probeColumns(ctx context.Context, tableName string) ([]datasource.Column, error) {
	probe := fmt.Sprintf("SELECT TOP 0 * FROM %s", quoteIdentifier(tableName))

	rows, err := b.db.QueryContext(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("probe table %q: %w", tableName, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get probe columns: %w", err)
	}

	columns := make([]datasource.Column, len(names))
	for i, name := range names {
		columns[i] = datasource.Column{Name: name, DataType: "unknown", Nullable: true}
	}
	return columns, nil
}

// Close releases the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

var _ datasource.ReadOnlyBackend = (*Backend)(nil)
