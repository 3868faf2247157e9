package collector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmeta/go-testmeta/types"
)

func exportedCollector(t *testing.T) *Collector {
	t.Helper()
	c := newTestCollector(t)
	c.HandleEvent(types.Event{Kind: types.EventSessionStart, Time: testBase})
	at := playTest(c, passingTest("test_round", "tests/test_e.py"), testBase)
	at = playTest(c, testCase{
		nodeID: "tests/test_e.py::test_trip", relPath: "tests/test_e.py",
		filename: "test_e.py", testCase: "test_trip",
		setup: types.StatusPassed, call: types.StatusFailed, teardown: types.StatusPassed,
		longRepr: "AssertionError: nope", stdout: "some output\n",
	}, at)
	c.HandleEvent(types.Event{Kind: types.EventSessionFinish, Time: at, ExitStatus: 1})
	return c
}

func TestExportJSONRoundTrip(t *testing.T) {
	c := exportedCollector(t)
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, c.ExportJSON(path, 4))

	written, err := os.ReadFile(path)
	require.NoError(t, err)

	var fromFile, fromSnapshot any
	require.NoError(t, json.Unmarshal(written, &fromFile))

	direct, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(direct, &fromSnapshot))

	assert.Equal(t, fromSnapshot, fromFile)
}

func TestExportJSONIndentation(t *testing.T) {
	c := exportedCollector(t)
	dir := t.TempDir()

	compact := filepath.Join(dir, "compact.json")
	require.NoError(t, c.ExportJSON(compact, 0))
	indented := filepath.Join(dir, "indented.json")
	require.NoError(t, c.ExportJSON(indented, 2))

	compactData, err := os.ReadFile(compact)
	require.NoError(t, err)
	indentedData, err := os.ReadFile(indented)
	require.NoError(t, err)

	assert.False(t, strings.Contains(string(compactData), "\n  "))
	assert.True(t, strings.HasPrefix(string(indentedData), "{\n  \"session\""))
	assert.Greater(t, len(indentedData), len(compactData))
}

func TestExportJSONCreatesParentDirectories(t *testing.T) {
	c := exportedCollector(t)
	path := filepath.Join(t.TempDir(), "nested", "deeper", "report.json")

	require.NoError(t, c.ExportJSON(path, 2))
	assert.FileExists(t, path)
}

func TestExportJSONOverwritesAtomically(t *testing.T) {
	c := exportedCollector(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))
	require.NoError(t, c.ExportJSON(path, 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	// No temporary files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.json", entries[0].Name())
}

func TestExportJSONPropagatesIOErrors(t *testing.T) {
	c := exportedCollector(t)

	// The parent "directory" is a regular file, so the export cannot land.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0644))

	err := c.ExportJSON(filepath.Join(blocker, "report.json"), 2)
	require.Error(t, err)
}
