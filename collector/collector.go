// Package collector implements the metadata façade fed by a host test
// runner's lifecycle events. It owns the per-test records and the session
// aggregate, and serves queries and exports over them.
//
// The collector is deliberately not locked: the host runner delivers events
// strictly sequentially within one process, and multi-worker runners hold
// one collector per worker.
package collector

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/testmeta/go-testmeta/metrics"
	"github.com/testmeta/go-testmeta/types"
)

// Collector is the process-wide entry point through which lifecycle events
// are ingested and queries are served. Construct one per observed session
// with New; there is no package-level instance.
type Collector struct {
	log   log.Logger
	runID string

	session *types.SessionMetadata
	tests   *orderedmap.OrderedMap[string, *types.TestMetadata]

	// Secondary index: every nodeid ever seen maps to its owning test.
	// Parametrized invocations share a test but carry distinct nodeids.
	byNodeID map[string]*types.TestMetadata

	// Transient pointer into tests; nil when no test is executing.
	current *types.TestMetadata

	// Nodeids already seen during collection, to drop duplicate callbacks.
	collected map[string]struct{}

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New creates an empty collector. A nil logger falls back to the default
// root logger.
func New(logger log.Logger) *Collector {
	if logger == nil {
		logger = log.New()
	}
	c := &Collector{log: logger}
	c.reset()
	return c
}

// Reset re-initializes the whole façade for a fresh session. There is no
// partial reset.
func (c *Collector) Reset() {
	c.reset()
}

func (c *Collector) reset() {
	c.runID = uuid.New().String()
	c.session = &types.SessionMetadata{}
	c.tests = orderedmap.New[string, *types.TestMetadata]()
	c.byNodeID = make(map[string]*types.TestMetadata)
	c.collected = make(map[string]struct{})
	c.current = nil
	if c.now == nil {
		c.now = time.Now
	}
}

// RunID identifies this collector instance in logs and capture directories.
func (c *Collector) RunID() string {
	return c.runID
}

// HandleEvent routes one lifecycle event into the record tree. Malformed or
// out-of-order events are dropped after a best-effort partial update; this
// path never returns an error and never panics into the host runner, since
// a plugin crash must not fail the user's test session.
func (c *Collector) HandleEvent(ev types.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Panic while ingesting lifecycle event", "kind", ev.Kind, "panic", r)
			metrics.RecordError("ingest_panic")
		}
	}()

	if err := ev.Validate(); err != nil {
		c.log.Debug("Dropping invalid lifecycle event", "kind", ev.Kind, "err", err)
		metrics.RecordDroppedEvent("invalid")
		return
	}
	metrics.RecordEvent(string(ev.Kind))

	switch ev.Kind {
	case types.EventSessionStart:
		c.handleSessionStart(ev)
	case types.EventCollect:
		c.handleCollect(ev)
	case types.EventStageStart:
		c.handleStageStart(ev)
	case types.EventStageReport:
		c.handleStageReport(ev)
	case types.EventSessionFinish:
		c.handleSessionFinish(ev)
	}
}

func (c *Collector) handleSessionStart(ev types.Event) {
	if !c.session.Start(c.eventTime(ev)) {
		c.log.Debug("Duplicate session_start event ignored")
	}
}

func (c *Collector) handleCollect(ev types.Event) {
	if _, seen := c.collected[ev.NodeID]; seen {
		// Defends against duplicate collection callbacks.
		c.log.Debug("Duplicate collect event ignored", "nodeid", ev.NodeID)
		return
	}
	c.collected[ev.NodeID] = struct{}{}
	c.getOrCreateTest(ev)
	c.session.Stats.TotalTests = c.tests.Len()
}

func (c *Collector) handleStageStart(ev types.Event) {
	tm := c.getOrCreateTest(ev)
	c.current = tm

	start := ev.Start
	if start.IsZero() {
		start = c.eventTime(ev)
	}

	if tm.CurrentRun == nil {
		c.openRun(tm, ev, start)
	}
	tm.CurrentStage = ev.Stage

	if slot := tm.CurrentRun.StageResult(ev.Stage); slot != nil {
		slot.StartTime = start
	}
	if tm.CurrentRun.StartTime.IsZero() {
		tm.CurrentRun.StartTime = start
	}
}

func (c *Collector) handleStageReport(ev types.Event) {
	tm := c.current
	if tm == nil && ev.NodeID != "" {
		tm = c.byNodeID[ev.NodeID]
	}
	if tm == nil || tm.CurrentRun == nil {
		// Report with no open run, e.g. a teardown report that was never
		// preceded by a setup start. Leave existing records unchanged.
		c.log.Debug("Dropping stage report with no open run", "stage", ev.Stage, "nodeid", ev.NodeID)
		metrics.RecordDroppedEvent("no_open_run")
		return
	}

	run := tm.CurrentRun
	slot := run.StageResult(ev.Stage)
	if slot == nil || slot.Completed() {
		c.log.Debug("Dropping duplicate stage report", "stage", ev.Stage, "test", tm.TestCase)
		metrics.RecordDroppedEvent("duplicate_report")
		return
	}

	c.finalizeStage(slot, ev)

	run.Status = run.RollupStatus()
	run.StopTime = slot.StopTime
	if !run.StartTime.IsZero() {
		run.Duration = run.StopTime.Sub(run.StartTime)
	}

	if ev.Stage == types.StageTeardown {
		c.closeRun(tm, run)
	}
}

func (c *Collector) handleSessionFinish(ev types.Event) {
	if !c.session.Finish(c.eventTime(ev), ev.ExitStatus) {
		c.log.Debug("Duplicate session_finish event ignored")
		return
	}
	stats := c.SessionStats()
	c.session.Stats = stats
	c.log.Info("Session finished",
		"run_id", c.runID,
		"exitstatus", ev.ExitStatus,
		"total", stats.TotalTests,
		"passed", stats.TotalPassed,
		"failed", stats.TotalFailed,
		"skipped", stats.TotalSkipped,
		"errors", stats.TotalErrors)
}

// getOrCreateTest returns the test owning the event's nodeid, creating it
// from the event's identity fields on first sight. Identity is set once and
// never mutated; only the nodeid of the most recent invocation is refreshed.
func (c *Collector) getOrCreateTest(ev types.Event) *types.TestMetadata {
	id := types.GenerateTestID(ev.RelPath, ev.TestCase)
	if tm, ok := c.tests.Get(id); ok {
		tm.NodeID = ev.NodeID
		c.byNodeID[ev.NodeID] = tm
		return tm
	}

	tm := &types.TestMetadata{
		ID:           id,
		NodeID:       ev.NodeID,
		Filename:     ev.Filename,
		TestCase:     ev.TestCase,
		RelPath:      ev.RelPath,
		AbsPath:      ev.AbsPath,
		LineNo:       ev.LineNo,
		Hierarchy:    types.SplitPathHierarchy(ev.RelPath),
		FixtureNames: append([]string{}, ev.FixtureNames...),
	}
	c.tests.Set(id, tm)
	c.byNodeID[ev.NodeID] = tm
	return tm
}

func (c *Collector) openRun(tm *types.TestMetadata, ev types.Event, start time.Time) {
	run := types.NewTestRun(ev.Parameters)
	run.StartTime = start
	tm.Runs = append(tm.Runs, run)
	tm.CurrentRun = run
	tm.TestIndex++
	tm.Stats = types.ComputeTestStats(tm.Runs)
	if tm.StartTime.IsZero() {
		tm.StartTime = start
	}
}

func (c *Collector) closeRun(tm *types.TestMetadata, run *types.TestRun) {
	tm.Stats = types.ComputeTestStats(tm.Runs)
	tm.StopTime = run.StopTime
	tm.CurrentRun = nil
	tm.CurrentStage = ""
	metrics.RecordRun(string(run.Status))
	c.log.Debug("Run closed", "test", tm.TestCase, "status", run.Status, "runs", tm.Stats.TotalRuns)
}

// finalizeStage classifies the stage outcome and freezes its timing and
// captured output. The stage result is never mutated afterward.
func (c *Collector) finalizeStage(slot *types.StageResult, ev types.Event) {
	slot.SetStatus(ev.EffectiveStatus())

	if !ev.Start.IsZero() {
		slot.StartTime = ev.Start
	}
	stop := ev.Stop
	if stop.IsZero() {
		stop = c.eventTime(ev)
	}
	slot.StopTime = stop
	if !slot.StartTime.IsZero() {
		slot.Duration = slot.StopTime.Sub(slot.StartTime)
	}

	slot.Capture = types.StageCapture{
		Stdout:   ev.Stdout,
		Stderr:   ev.Stderr,
		Log:      ev.Log,
		LongRepr: ev.LongRepr,
	}
}

func (c *Collector) eventTime(ev types.Event) time.Time {
	if !ev.Time.IsZero() {
		return ev.Time
	}
	return c.now()
}
