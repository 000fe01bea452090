// Package mssql implements the read-only query backend on Microsoft SQL
// Server via database/sql. T-SQL has no LIMIT clause, so the adapter
// translates the guard's trailing LIMIT into a TOP-wrapped subselect, and
// rewrites $1..$n placeholders into the @p1..@pn form the driver expects.
package mssql

import (
	"fmt"
	"net/url"

	"github.com/querylens-io/starmart-engine/pkg/datasource"
)

// connectionString builds a sqlserver:// URL from the backend config.
func connectionString(cfg datasource.BackendConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)
	if cfg.SSLMode == "disable" {
		query.Add("encrypt", "disable")
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// quoteIdentifier brackets a T-SQL identifier, escaping closing brackets.
func quoteIdentifier(name string) string {
	escaped := ""
	for _, r := range name {
		if r == ']' {
			escaped += "]]"
		} else {
			escaped += string(r)
		}
	}
	return "[" + escaped + "]"
}
