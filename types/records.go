package types

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// StageCapture holds the textual output captured during one stage.
// All fields default to the empty string so callers can always read them.
type StageCapture struct {
	Stdout   string
	Stderr   string
	Log      string
	LongRepr string
}

// StageResult is the outcome of a single stage within a run. It is created
// when the stage starts and finalized by the stage report; it is not mutated
// afterward.
type StageResult struct {
	Status    Status
	StartTime time.Time
	StopTime  time.Time
	Duration  time.Duration
	Passed    bool
	Failed    bool
	Skipped   bool
	Error     bool
	Capture   StageCapture
}

// SetStatus records the stage outcome and derives the boolean classifiers
// from it, keeping them mutually exclusive.
func (r *StageResult) SetStatus(status Status) {
	r.Status = status
	r.Passed = status == StatusPassed
	r.Failed = status == StatusFailed
	r.Skipped = status == StatusSkipped
	r.Error = status == StatusError
}

// Completed reports whether the stage has received its report.
func (r *StageResult) Completed() bool {
	return r.Status.Valid()
}

// TestRun is one execution attempt of a test case: its parameters, overall
// status and one StageResult per stage.
type TestRun struct {
	Parameters map[string]any
	Status     Status
	StartTime  time.Time
	StopTime   time.Time
	Duration   time.Duration

	Setup    StageResult
	Call     StageResult
	Teardown StageResult
}

// NewTestRun creates a run with its parameters copied from the collection
// data. Parameters are never nil.
func NewTestRun(parameters map[string]any) *TestRun {
	params := make(map[string]any, len(parameters))
	for k, v := range parameters {
		params[k] = v
	}
	return &TestRun{Parameters: params}
}

// StageResult returns the result slot for the given stage, or nil for an
// unknown stage.
func (r *TestRun) StageResult(stage Stage) *StageResult {
	switch stage {
	case StageSetup:
		return &r.Setup
	case StageCall:
		return &r.Call
	case StageTeardown:
		return &r.Teardown
	}
	return nil
}

// RollupStatus computes the run's overall status as the worst case across
// its completed stages. Stages that never ran do not contribute.
func (r *TestRun) RollupStatus() Status {
	return WorstStatus(r.Setup.Status, r.Call.Status, r.Teardown.Status)
}

// TestStats are roll-up counters over a test's run history.
type TestStats struct {
	TotalRuns    int
	TotalPassed  int
	TotalFailed  int
	TotalSkipped int
	TotalErrors  int
}

// Record counts one closed run with the given overall status.
func (s *TestStats) Record(status Status) {
	s.TotalRuns++
	switch status {
	case StatusPassed:
		s.TotalPassed++
	case StatusFailed:
		s.TotalFailed++
	case StatusSkipped:
		s.TotalSkipped++
	case StatusError:
		s.TotalErrors++
	}
}

// ComputeTestStats derives stats from a run history. Runs that are still
// open (no roll-up status yet) count toward TotalRuns only.
func ComputeTestStats(runs []*TestRun) TestStats {
	var stats TestStats
	for _, run := range runs {
		stats.TotalRuns++
		switch run.Status {
		case StatusPassed:
			stats.TotalPassed++
		case StatusFailed:
			stats.TotalFailed++
		case StatusSkipped:
			stats.TotalSkipped++
		case StatusError:
			stats.TotalErrors++
		}
	}
	return stats
}

// TestMetadata is one discovered test case: identity fields set at collection
// time plus its ordered run history.
type TestMetadata struct {
	// Identity, set once at collection and never mutated.
	ID           string
	NodeID       string
	Filename     string
	TestCase     string
	RelPath      string
	AbsPath      string
	LineNo       int
	Hierarchy    []string
	FixtureNames []string

	// Execution context.
	CurrentStage Stage
	TestIndex    int

	// Timing and run history.
	StartTime  time.Time
	StopTime   time.Time
	Stats      TestStats
	Runs       []*TestRun
	CurrentRun *TestRun
}

// Duration returns the elapsed time between the first and last observed
// activity for this test. While the test is still running it measures
// against the current time.
func (t *TestMetadata) Duration() time.Duration {
	if t.StartTime.IsZero() {
		return 0
	}
	if t.StopTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.StopTime.Sub(t.StartTime)
}

// LatestRun returns the most recent run, or nil when the test never ran.
func (t *TestMetadata) LatestRun() *TestRun {
	if len(t.Runs) == 0 {
		return nil
	}
	return t.Runs[len(t.Runs)-1]
}

// GenerateTestID derives the stable test identifier from the test's relative
// path and original test case name. Parametrized invocations of the same
// test share an ID while each produces its own run.
func GenerateTestID(relpath, testcase string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s::%s", relpath, testcase)))
	return hex.EncodeToString(sum[:])
}

// SessionStats are the whole-run roll-up counters.
type SessionStats struct {
	TotalTests   int
	TotalPassed  int
	TotalFailed  int
	TotalSkipped int
	TotalErrors  int
}

// SessionMetadata aggregates whole-run state. One instance exists per
// observed session.
type SessionMetadata struct {
	StartTime  time.Time
	StopTime   time.Time
	ExitStatus int
	Stats      SessionStats

	hasStarted  bool
	hasFinished bool
}

// Start marks the session as started. Duplicate starts are no-ops and
// return false.
func (s *SessionMetadata) Start(at time.Time) bool {
	if s.hasStarted {
		return false
	}
	s.StartTime = at
	s.hasStarted = true
	return true
}

// Finish marks the session as finished and records the exit status.
// Duplicate finishes are no-ops and return false.
func (s *SessionMetadata) Finish(at time.Time, exitStatus int) bool {
	if s.hasFinished {
		return false
	}
	s.StopTime = at
	s.ExitStatus = exitStatus
	s.hasFinished = true
	return true
}

// HasStarted reports whether a session-start event was observed.
func (s *SessionMetadata) HasStarted() bool { return s.hasStarted }

// HasFinished reports whether a session-finish event was observed.
func (s *SessionMetadata) HasFinished() bool { return s.hasFinished }

// Duration returns the session's elapsed time, measured against the current
// time while the session is still running.
func (s *SessionMetadata) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.StopTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.StopTime.Sub(s.StartTime)
}
