package testmeta

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmeta/go-testmeta/logging"
	"github.com/testmeta/go-testmeta/types"
)

var svcBase = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testEvents(t *testing.T, callOutcomes map[string]types.Status, exitStatus int) string {
	t.Helper()
	var lines []string
	appendEvent := func(ev types.Event) {
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		lines = append(lines, string(data))
	}

	at := svcBase
	appendEvent(types.Event{Kind: types.EventSessionStart, Time: at})
	names := make([]string, 0, len(callOutcomes))
	for name := range callOutcomes {
		names = append(names, name)
	}
	// Map order is random; the stream order does not matter for totals.
	for _, name := range names {
		nodeID := "tests/test_svc.py::" + name
		appendEvent(types.Event{
			Kind: types.EventCollect, Time: at,
			NodeID: nodeID, RelPath: "tests/test_svc.py",
			Filename: "test_svc.py", TestCase: name,
		})
		for _, stage := range []types.Stage{types.StageSetup, types.StageCall, types.StageTeardown} {
			outcome := types.StatusPassed
			repr := ""
			if stage == types.StageCall {
				outcome = callOutcomes[name]
				if outcome == types.StatusFailed {
					repr = "AssertionError: broken"
				}
			}
			stop := at.Add(10 * time.Millisecond)
			appendEvent(types.Event{
				Kind: types.EventStageStart, Time: at,
				NodeID: nodeID, RelPath: "tests/test_svc.py", TestCase: name,
				Stage: stage, Start: at,
			})
			appendEvent(types.Event{
				Kind: types.EventStageReport, Time: stop,
				NodeID: nodeID, RelPath: "tests/test_svc.py", TestCase: name,
				Stage: stage, Outcome: outcome, Start: at, Stop: stop,
				LongRepr: repr,
			})
			at = stop
		}
	}
	appendEvent(types.Event{Kind: types.EventSessionFinish, Time: at, ExitStatus: exitStatus})

	path := filepath.Join(t.TempDir(), "events.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func newTestService(t *testing.T, cfg *Config) (*Service, *bytes.Buffer) {
	t.Helper()
	if cfg.Log == nil {
		cfg.Log = log.NewLogger(log.DiscardHandler())
	}
	svc, err := New(cfg)
	require.NoError(t, err)
	var out bytes.Buffer
	svc.Stdout = &out
	return svc, &out
}

func TestServiceRunCleanSession(t *testing.T) {
	events := testEvents(t, map[string]types.Status{
		"test_a": types.StatusPassed,
		"test_b": types.StatusPassed,
	}, 0)
	output := filepath.Join(t.TempDir(), "report.json")

	svc, out := newTestService(t, &Config{
		EventsPath: events,
		OutputPath: output,
		Indent:     2,
		Summary:    true,
	})
	require.NoError(t, svc.Run(context.Background()))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "session")
	assert.Contains(t, doc, "tests")

	assert.Contains(t, out.String(), "test_a")
	assert.Contains(t, out.String(), "2 TESTS")

	stats := svc.Collector().SessionStats()
	assert.Equal(t, 2, stats.TotalTests)
	assert.Equal(t, 2, stats.TotalPassed)
}

func TestServiceRunReportsTestFailures(t *testing.T) {
	events := testEvents(t, map[string]types.Status{
		"test_good": types.StatusPassed,
		"test_bad":  types.StatusFailed,
	}, 1)

	svc, _ := newTestService(t, &Config{EventsPath: events})
	err := svc.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "1 failed, 0 errored of 2 tests")
}

func TestServiceRunWritesFailureCaptures(t *testing.T) {
	events := testEvents(t, map[string]types.Status{
		"test_bad": types.StatusFailed,
	}, 1)
	captureDir := t.TempDir()

	svc, _ := newTestService(t, &Config{
		EventsPath: events,
		CaptureDir: captureDir,
	})
	err := svc.Run(context.Background())
	require.Error(t, err)
	require.True(t, IsTestFailureError(err))

	runDirs, err := filepath.Glob(filepath.Join(captureDir, logging.RunDirectoryPrefix+"*"))
	require.NoError(t, err)
	require.Len(t, runDirs, 1)

	files, err := os.ReadDir(filepath.Join(runDirs[0], "failed"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "test_bad_run1.log", files[0].Name())
}

func TestServiceRunMissingEventStream(t *testing.T) {
	svc, _ := newTestService(t, &Config{
		EventsPath: filepath.Join(t.TempDir(), "absent.ndjson"),
	})
	err := svc.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.False(t, IsTestFailureError(err))
}

func TestServiceRunSummaryDisabled(t *testing.T) {
	events := testEvents(t, map[string]types.Status{"test_quiet": types.StatusPassed}, 0)

	svc, out := newTestService(t, &Config{EventsPath: events})
	require.NoError(t, svc.Run(context.Background()))
	assert.Empty(t, out.String())
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
