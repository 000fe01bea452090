package sqlguard

import "fmt"

// Kind identifies why a query was refused. The set is closed: every
// rejection the guard or the execution gateway produces carries exactly one
// of these values.
type Kind int

const (
	// Validation kinds. These are detected locally; no backend call is made.
	KindEmptyQuery Kind = iota + 1
	KindQueryTooLong
	KindForbiddenKeyword
	KindMustStartWithSelect
	KindDangerousPattern
	KindTableNotAllowed

	// Execution kinds, reclassified from backend failures.
	KindSyntaxError
	KindTableNotFound
	KindColumnNotFound
	KindExecutionFailure
	KindTimeout
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmptyQuery:
		return "empty_query"
	case KindQueryTooLong:
		return "query_too_long"
	case KindForbiddenKeyword:
		return "forbidden_keyword"
	case KindMustStartWithSelect:
		return "must_start_with_select"
	case KindDangerousPattern:
		return "dangerous_pattern"
	case KindTableNotAllowed:
		return "table_not_allowed"
	case KindSyntaxError:
		return "syntax_error"
	case KindTableNotFound:
		return "table_not_found"
	case KindColumnNotFound:
		return "column_not_found"
	case KindExecutionFailure:
		return "execution_failure"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Rejection is a structured description of a refused query. Exactly one of
// Keyword, Pattern, or Table is set for the kinds that carry a payload;
// Detail holds backend-reported context where useful.
type Rejection struct {
	Kind    Kind
	Keyword string
	Pattern string
	Table   string
	Detail  string
}

// Error renders the rejection as a user-visible message.
func (r *Rejection) Error() string {
	switch r.Kind {
	case KindEmptyQuery:
		return "SQL query cannot be empty"
	case KindQueryTooLong:
		return "query too long: " + r.Detail
	case KindForbiddenKeyword:
		return fmt.Sprintf("forbidden keyword '%s' detected; only SELECT queries are allowed", r.Keyword)
	case KindMustStartWithSelect:
		return "query must start with SELECT; only read operations are allowed"
	case KindDangerousPattern:
		msg := "potentially dangerous SQL pattern detected: " + r.Pattern
		if r.Detail != "" {
			msg += " (" + r.Detail + ")"
		}
		return msg
	case KindTableNotAllowed:
		return fmt.Sprintf("access to table '%s' is not allowed", r.Table)
	case KindSyntaxError:
		return "SQL syntax error: " + r.Detail
	case KindTableNotFound:
		return "table not found: " + r.Detail
	case KindColumnNotFound:
		return "column not found: " + r.Detail
	case KindExecutionFailure:
		return "database error: " + r.Detail
	case KindTimeout:
		return "query execution timed out"
	default:
		return "query rejected"
	}
}

// IsValidation reports whether the rejection was produced before any
// backend call was made.
func (r *Rejection) IsValidation() bool {
	switch r.Kind {
	case KindEmptyQuery, KindQueryTooLong, KindForbiddenKeyword,
		KindMustStartWithSelect, KindDangerousPattern, KindTableNotAllowed:
		return true
	}
	return false
}
