package sqlguard

import (
	"fmt"
	"regexp"
	"strconv"
)

// limitClauseRe matches a LIMIT clause with a numeric argument. Only the
// first occurrence is authoritative for rewriting.
var limitClauseRe = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)

// LimitedQuery is a sanitized query with an enforced row cap. Limit is the
// effective ceiling the backend and the gateway's client-side truncation
// both honor.
type LimitedQuery struct {
	Text  string
	Limit int
}

// EnforceLimit guarantees the query carries a LIMIT clause no larger than
// policy.MaxRowLimit.
//
// If the query has no LIMIT clause, one is appended using the requested
// limit (defaulted and capped against the policy). If the existing clause
// exceeds the ceiling it is rewritten in place to the ceiling; a smaller
// user-specified LIMIT is honored as-is, independent of requestedLimit.
func EnforceLimit(q SanitizedQuery, requestedLimit int, policy Policy) LimitedQuery {
	if requestedLimit <= 0 {
		requestedLimit = policy.DefaultLimit
	}
	if requestedLimit > policy.MaxRowLimit {
		requestedLimit = policy.MaxRowLimit
	}

	loc := limitClauseRe.FindStringSubmatchIndex(q.Text)
	if loc == nil {
		return LimitedQuery{
			Text:  fmt.Sprintf("%s LIMIT %d", q.Text, requestedLimit),
			Limit: requestedLimit,
		}
	}

	existing, err := strconv.Atoi(q.Text[loc[2]:loc[3]])
	if err != nil || existing > policy.MaxRowLimit {
		// Atoi only fails on overflow here, which also exceeds the ceiling.
		text := q.Text[:loc[0]] + fmt.Sprintf("LIMIT %d", policy.MaxRowLimit) + q.Text[loc[1]:]
		return LimitedQuery{Text: text, Limit: policy.MaxRowLimit}
	}

	return LimitedQuery{Text: q.Text, Limit: existing}
}
