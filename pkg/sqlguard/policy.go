// Package sqlguard decides whether untrusted, free-text SQL is safe to run
// against a fixed analytical schema. It is a deny-by-default guard built
// from lexical pattern matching plus a table allow-list, deliberately
// conservative rather than grammar-aware.
package sqlguard

import (
	"sort"
	"strings"
)

// Policy defaults. These match the shipped configuration and can be
// overridden through pkg/config.
const (
	DefaultMaxQueryLength = 2000
	DefaultRowLimit       = 100
	DefaultMaxRowLimit    = 1000
)

// DefaultAllowedTables is the star schema the guard ships with.
var DefaultAllowedTables = []string{"dim_customer", "dim_product", "dim_date", "fact_sales"}

// AllowedKeywords documents the SQL surface callers are expected to use.
// It is informational only: validation is deny-by-default and never
// consults this set.
var AllowedKeywords = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "INNER", "LEFT", "RIGHT", "OUTER",
	"ON", "GROUP", "BY", "ORDER", "HAVING", "LIMIT", "OFFSET", "AS",
	"AND", "OR", "NOT", "IN", "LIKE", "BETWEEN", "IS", "NULL", "DISTINCT",
	"COUNT", "SUM", "AVG", "MIN", "MAX", "CASE", "WHEN", "THEN", "ELSE", "END",
	"CAST", "EXTRACT", "DATE", "TIMESTAMP", "UNION", "ALL", "EXISTS",
	"WITH", "RECURSIVE",
}

// Policy is the immutable validation configuration shared by every
// concurrent validation. Construct it once at startup and pass it by value;
// nothing in this package mutates it.
type Policy struct {
	allowedTables  map[string]struct{}
	MaxQueryLength int
	DefaultLimit   int
	MaxRowLimit    int
}

// NewPolicy builds a Policy. Table names are normalized to lowercase.
// Zero or negative numeric limits fall back to the package defaults.
func NewPolicy(allowedTables []string, maxQueryLength, defaultLimit, maxRowLimit int) Policy {
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultRowLimit
	}
	if maxRowLimit <= 0 {
		maxRowLimit = DefaultMaxRowLimit
	}
	if defaultLimit > maxRowLimit {
		defaultLimit = maxRowLimit
	}

	tables := make(map[string]struct{}, len(allowedTables))
	for _, t := range allowedTables {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tables[t] = struct{}{}
		}
	}

	return Policy{
		allowedTables:  tables,
		MaxQueryLength: maxQueryLength,
		DefaultLimit:   defaultLimit,
		MaxRowLimit:    maxRowLimit,
	}
}

// DefaultPolicy returns the shipped star-schema policy.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultAllowedTables, DefaultMaxQueryLength, DefaultRowLimit, DefaultMaxRowLimit)
}

// TableAllowed reports whether the lowercase identifier is on the allow-list.
func (p Policy) TableAllowed(name string) bool {
	_, ok := p.allowedTables[name]
	return ok
}

// AllowedTableNames returns the allow-list sorted alphabetically.
func (p Policy) AllowedTableNames() []string {
	names := make([]string, 0, len(p.allowedTables))
	for name := range p.allowedTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
