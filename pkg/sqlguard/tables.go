package sqlguard

import (
	"regexp"
	"strings"
)

// tableRefRe captures the identifier immediately following FROM or JOIN.
// \w excludes '.', so a schema-qualified reference like
// information_schema.tables yields only its first segment, which then fails
// the allow-list. That fail-closed behavior is intentional.
var tableRefRe = regexp.MustCompile(`\b(?:FROM|JOIN)\s+(\w+)`)

// ExtractTableRefs scans the uppercased query text for FROM/JOIN targets
// and returns the referenced identifiers lowercased, deduplicated, in order
// of first appearance. Aliases, subqueries, and CTE names are not resolved.
func ExtractTableRefs(upper string) []string {
	matches := tableRefRe.FindAllStringSubmatch(upper, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}
	return refs
}
