// Package postgres implements the read-only query backend on PostgreSQL
// via pgx. Sessions are opened with default_transaction_read_only=on so a
// statement that slipped past the guard still cannot write.
package postgres

import (
	"fmt"

	"github.com/querylens-io/starmart-engine/pkg/datasource"
)

// connectionString builds a keyword/value DSN from the backend config.
func connectionString(cfg datasource.BackendConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode,
	)
}
