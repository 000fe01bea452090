package sqlguard

import "regexp"

// forbiddenKeywordRe matches any write/DDL/admin keyword as a whole word.
// Word boundaries keep identifiers like UPDATED_AT from matching UPDATE.
// EXECUTE is listed before EXEC so the longer token is reported.
var forbiddenKeywordRe = regexp.MustCompile(
	`\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|EXECUTE|EXEC|CALL|` +
		`PROCEDURE|FUNCTION|TRIGGER|GRANT|REVOKE|COMMIT|ROLLBACK|SAVEPOINT|` +
		`PRAGMA|ATTACH|DETACH|VACUUM|ANALYZE|EXPLAIN)\b`)

// FindForbiddenKeyword scans the uppercased query text and returns the
// first forbidden keyword by position, or "" if none match.
func FindForbiddenKeyword(upper string) string {
	return forbiddenKeywordRe.FindString(upper)
}

// patternRule is a named lexical rule. Rules are pure and independently
// testable; order in dangerousPatterns defines which one a query is
// reported against when several would match.
type patternRule struct {
	name string
	re   *regexp.Regexp
}

var dangerousPatterns = []patternRule{
	{"line comment", regexp.MustCompile(`--`)},
	{"block comment", regexp.MustCompile(`(?s)/\*.*?\*/`)},
	{"multiple statements", regexp.MustCompile(`;\s*\S`)},
	{"extended stored procedure", regexp.MustCompile(`\bXP_\w+`)},
	{"stored procedure", regexp.MustCompile(`\bSP_\w+`)},
	{"system variable", regexp.MustCompile(`@@\w+`)},
	{"dollar quoting", regexp.MustCompile(`\$\$`)},
}

// FindDangerousPattern scans the uppercased query text and returns the name
// of the first dangerous lexical construct found, or "" if none match.
func FindDangerousPattern(upper string) string {
	for _, rule := range dangerousPatterns {
		if rule.re.MatchString(upper) {
			return rule.name
		}
	}
	return ""
}
