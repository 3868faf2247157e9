package types

import (
	"strings"
)

// SplitPathHierarchy splits a test file path into its components, e.g.
// "tests/unit/test_auth.py" -> ["tests", "unit", "test_auth.py"].
// Both separator styles are handled regardless of the host platform, since
// paths come from the observed runner, and empty elements are dropped.
func SplitPathHierarchy(path string) []string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	hierarchy := make([]string, 0, len(parts))
	hierarchy = append(hierarchy, parts...)
	return hierarchy
}
