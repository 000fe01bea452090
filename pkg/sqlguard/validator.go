package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// leadingSelectRe requires SELECT as the first token of the query.
var leadingSelectRe = regexp.MustCompile(`^SELECT\b`)

// SanitizedQuery is a query that passed every policy check: trimmed,
// starting with SELECT, free of forbidden keywords and dangerous patterns,
// referencing only allow-listed tables. Casing and interior whitespace are
// preserved.
type SanitizedQuery struct {
	Text string
}

// Validate runs the policy checks against raw query text and returns either
// a SanitizedQuery or the first Rejection encountered.
//
// Check order (short-circuit on first failure):
//  1. empty or whitespace-only input
//  2. character length vs policy.MaxQueryLength
//  3. forbidden keywords, anywhere in the text
//  4. leading SELECT
//  5. dangerous lexical patterns
//  6. table allow-list
//
// The length check runs before the keyword scan, so an oversized query that
// also contains forbidden keywords always reports KindQueryTooLong.
func Validate(raw string, policy Policy) (SanitizedQuery, *Rejection) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SanitizedQuery{}, &Rejection{Kind: KindEmptyQuery}
	}

	if utf8.RuneCountInString(trimmed) > policy.MaxQueryLength {
		return SanitizedQuery{}, &Rejection{
			Kind:   KindQueryTooLong,
			Detail: fmt.Sprintf("maximum length is %d characters", policy.MaxQueryLength),
		}
	}

	upper := strings.ToUpper(trimmed)

	if kw := FindForbiddenKeyword(upper); kw != "" {
		return SanitizedQuery{}, &Rejection{Kind: KindForbiddenKeyword, Keyword: kw}
	}

	if !leadingSelectRe.MatchString(upper) {
		return SanitizedQuery{}, &Rejection{Kind: KindMustStartWithSelect}
	}

	if name := FindDangerousPattern(upper); name != "" {
		return SanitizedQuery{}, &Rejection{Kind: KindDangerousPattern, Pattern: name}
	}

	for _, table := range ExtractTableRefs(upper) {
		if !policy.TableAllowed(table) {
			return SanitizedQuery{}, &Rejection{Kind: KindTableNotAllowed, Table: table}
		}
	}

	return SanitizedQuery{Text: trimmed}, nil
}
