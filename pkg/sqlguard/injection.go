package sqlguard

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding describes a positional query parameter flagged as a SQL
// injection attempt.
type InjectionFinding struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Position    int    // 1-based position of the parameter ($1, $2, ...)
	Value       any    // the value that was checked
}

// CheckParameter uses libinjection to detect SQL injection patterns in a
// single parameter value. Only string values are checked; numbers, booleans,
// and other types cannot smuggle SQL and return nil.
func CheckParameter(position int, value any) *InjectionFinding {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}

	return &InjectionFinding{
		Fingerprint: string(fingerprint),
		Position:    position,
		Value:       value,
	}
}

// CheckParameters screens every positional parameter destined for a
// placeholder binding. Returns a finding per flagged parameter, or nil when
// all are clean.
func CheckParameters(params []any) []*InjectionFinding {
	var findings []*InjectionFinding
	for i, value := range params {
		if f := CheckParameter(i+1, value); f != nil {
			findings = append(findings, f)
		}
	}
	return findings
}
