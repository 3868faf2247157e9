package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPathHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{
			name:     "nested path",
			path:     "tests/unit/test_auth.py",
			expected: []string{"tests", "unit", "test_auth.py"},
		},
		{
			name:     "single file",
			path:     "test_auth.py",
			expected: []string{"test_auth.py"},
		},
		{
			name:     "windows separators",
			path:     `tests\unit\test_auth.py`,
			expected: []string{"tests", "unit", "test_auth.py"},
		},
		{
			name:     "leading and doubled separators dropped",
			path:     "/tests//test_auth.py",
			expected: []string{"tests", "test_auth.py"},
		},
		{
			name:     "empty path",
			path:     "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitPathHierarchy(tt.path))
		})
	}
}
