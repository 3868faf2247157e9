package collector

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/testmeta/go-testmeta/types"
)

// Snapshot is the deterministic plain projection of the whole record tree.
// The field names and nesting here are the export contract; they must stay
// stable across versions. Timestamps are RFC3339 and durations float
// seconds. The tests object preserves collection order.
type Snapshot struct {
	Session SessionSnapshot                               `json:"session"`
	Tests   *orderedmap.OrderedMap[string, *TestSnapshot] `json:"tests"`
}

type SessionSnapshot struct {
	StartTime  *time.Time           `json:"start_time"`
	StopTime   *time.Time           `json:"stop_time"`
	Duration   float64              `json:"duration"`
	ExitStatus int                  `json:"exitstatus"`
	Stats      SessionStatsSnapshot `json:"stats"`
}

// The stats keys are part of the export contract and are always present,
// zero counts included.
type SessionStatsSnapshot struct {
	TotalTests   int `json:"total_tests"`
	TotalPassed  int `json:"total_passed"`
	TotalFailed  int `json:"total_failed"`
	TotalSkipped int `json:"total_skipped"`
	TotalErrors  int `json:"total_errors"`
}

type TestStatsSnapshot struct {
	TotalRuns    int `json:"total_runs"`
	TotalPassed  int `json:"total_passed"`
	TotalFailed  int `json:"total_failed"`
	TotalSkipped int `json:"total_skipped"`
	TotalErrors  int `json:"total_errors"`
}

type TestSnapshot struct {
	ID           string        `json:"id"`
	NodeID       string        `json:"nodeid"`
	Filename     string        `json:"filename"`
	TestCase     string        `json:"testcase"`
	RelPath      string        `json:"relpath"`
	AbsPath      string        `json:"abspath"`
	LineNo       int           `json:"lineno"`
	Hierarchy    []string      `json:"hierarchy"`
	FixtureNames []string      `json:"fixture_names"`
	StartTime    *time.Time        `json:"start_time"`
	StopTime     *time.Time        `json:"stop_time"`
	Duration     float64           `json:"duration"`
	Stats        TestStatsSnapshot `json:"stats"`
	Runs         []RunSnapshot     `json:"runs"`
}

type RunSnapshot struct {
	Parameters map[string]any `json:"parameters"`
	Status     string         `json:"status"`
	StartTime  *time.Time     `json:"start_time"`
	StopTime   *time.Time     `json:"stop_time"`
	Duration   float64        `json:"duration"`
	Setup      StageSnapshot  `json:"setup"`
	Call       StageSnapshot  `json:"call"`
	Teardown   StageSnapshot  `json:"teardown"`
}

type StageSnapshot struct {
	Status    string          `json:"status"`
	StartTime *time.Time      `json:"start_time"`
	StopTime  *time.Time      `json:"stop_time"`
	Duration  float64         `json:"duration"`
	Passed    bool            `json:"passed"`
	Failed    bool            `json:"failed"`
	Skipped   bool            `json:"skipped"`
	Error     bool            `json:"error"`
	Capture   CaptureSnapshot `json:"capture"`
}

type CaptureSnapshot struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Log      string `json:"log"`
	LongRepr string `json:"longrepr"`
}

// Snapshot projects the session aggregate and every test, with nested runs,
// stages and captures, in collection order.
func (c *Collector) Snapshot() *Snapshot {
	snap := &Snapshot{
		Session: c.sessionSnapshot(),
		Tests:   orderedmap.New[string, *TestSnapshot](),
	}
	for pair := c.tests.Oldest(); pair != nil; pair = pair.Next() {
		snap.Tests.Set(pair.Key, testSnapshot(pair.Value))
	}
	return snap
}

func (c *Collector) sessionSnapshot() SessionSnapshot {
	stats := c.SessionStats()
	return SessionSnapshot{
		StartTime:  timePtr(c.session.StartTime),
		StopTime:   timePtr(c.session.StopTime),
		Duration:   c.session.Duration().Seconds(),
		ExitStatus: c.session.ExitStatus,
		Stats: SessionStatsSnapshot{
			TotalTests:   stats.TotalTests,
			TotalPassed:  stats.TotalPassed,
			TotalFailed:  stats.TotalFailed,
			TotalSkipped: stats.TotalSkipped,
			TotalErrors:  stats.TotalErrors,
		},
	}
}

func testSnapshot(tm *types.TestMetadata) *TestSnapshot {
	ts := &TestSnapshot{
		ID:           tm.ID,
		NodeID:       tm.NodeID,
		Filename:     tm.Filename,
		TestCase:     tm.TestCase,
		RelPath:      tm.RelPath,
		AbsPath:      tm.AbsPath,
		LineNo:       tm.LineNo,
		Hierarchy:    emptyIfNil(tm.Hierarchy),
		FixtureNames: emptyIfNil(tm.FixtureNames),
		StartTime:    timePtr(tm.StartTime),
		StopTime:     timePtr(tm.StopTime),
		Duration:     tm.Duration().Seconds(),
		Stats: TestStatsSnapshot{
			TotalRuns:    tm.Stats.TotalRuns,
			TotalPassed:  tm.Stats.TotalPassed,
			TotalFailed:  tm.Stats.TotalFailed,
			TotalSkipped: tm.Stats.TotalSkipped,
			TotalErrors:  tm.Stats.TotalErrors,
		},
		Runs: make([]RunSnapshot, 0, len(tm.Runs)),
	}
	for _, run := range tm.Runs {
		ts.Runs = append(ts.Runs, runSnapshot(run))
	}
	return ts
}

func runSnapshot(run *types.TestRun) RunSnapshot {
	// Copied, so the projection never shares mutable state with the records.
	params := make(map[string]any, len(run.Parameters))
	for k, v := range run.Parameters {
		params[k] = v
	}
	return RunSnapshot{
		Parameters: params,
		Status:     string(run.Status),
		StartTime:  timePtr(run.StartTime),
		StopTime:   timePtr(run.StopTime),
		Duration:   run.Duration.Seconds(),
		Setup:      stageSnapshot(run.Setup),
		Call:       stageSnapshot(run.Call),
		Teardown:   stageSnapshot(run.Teardown),
	}
}

func stageSnapshot(sr types.StageResult) StageSnapshot {
	return StageSnapshot{
		Status:    string(sr.Status),
		StartTime: timePtr(sr.StartTime),
		StopTime:  timePtr(sr.StopTime),
		Duration:  sr.Duration.Seconds(),
		Passed:    sr.Passed,
		Failed:    sr.Failed,
		Skipped:   sr.Skipped,
		Error:     sr.Error,
		Capture: CaptureSnapshot{
			Stdout:   sr.Capture.Stdout,
			Stderr:   sr.Capture.Stderr,
			Log:      sr.Capture.Log,
			LongRepr: sr.Capture.LongRepr,
		},
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
