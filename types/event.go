package types

import (
	"fmt"
	"time"
)

// EventKind identifies a lifecycle event delivered by the host runner.
type EventKind string

const (
	EventSessionStart  EventKind = "session_start"
	EventCollect       EventKind = "collect"
	EventStageStart    EventKind = "stage_start"
	EventStageReport   EventKind = "stage_report"
	EventSessionFinish EventKind = "session_finish"
)

// Valid reports whether k names a known lifecycle event.
func (k EventKind) Valid() bool {
	switch k {
	case EventSessionStart, EventCollect, EventStageStart, EventStageReport, EventSessionFinish:
		return true
	}
	return false
}

// Event is the tagged lifecycle variant at the ingestion boundary. The host
// runner (or an adapter inside it) emits one Event per hook call; fields not
// relevant to a kind are left at their zero values. Events are validated
// once here, so the rest of the collector never touches loosely-typed data.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time,omitempty"`

	// Test identity, supplied on collect and tolerated on stage events for
	// runners that skip collection callbacks.
	NodeID       string         `json:"nodeid,omitempty"`
	RelPath      string         `json:"relpath,omitempty"`
	AbsPath      string         `json:"abspath,omitempty"`
	Filename     string         `json:"filename,omitempty"`
	TestCase     string         `json:"testcase,omitempty"`
	LineNo       int            `json:"lineno,omitempty"`
	FixtureNames []string       `json:"fixture_names,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`

	// Stage events.
	Stage   Stage     `json:"stage,omitempty"`
	Outcome Status    `json:"outcome,omitempty"`
	Start   time.Time `json:"start,omitempty"`
	Stop    time.Time `json:"stop,omitempty"`

	// Captured output attached to a stage report. Absent fields stay empty.
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Log      string `json:"log,omitempty"`
	LongRepr string `json:"longrepr,omitempty"`

	// Session finish.
	ExitStatus int `json:"exitstatus,omitempty"`
}

// Validate checks the variant's internal consistency. A nil error means the
// event is safe to route; the collector drops invalid events without
// touching state.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	switch e.Kind {
	case EventCollect:
		if e.NodeID == "" {
			return fmt.Errorf("collect event missing nodeid")
		}
		if e.TestCase == "" {
			return fmt.Errorf("collect event missing testcase")
		}
	case EventStageStart:
		if !e.Stage.Valid() {
			return fmt.Errorf("stage_start event with unknown stage %q", e.Stage)
		}
		if e.NodeID == "" {
			return fmt.Errorf("stage_start event missing nodeid")
		}
	case EventStageReport:
		if !e.Stage.Valid() {
			return fmt.Errorf("stage_report event with unknown stage %q", e.Stage)
		}
		if !e.Outcome.Valid() {
			return fmt.Errorf("stage_report event with unknown outcome %q", e.Outcome)
		}
	}
	return nil
}

// EffectiveStatus maps the runner-reported outcome onto the closed status
// set for the given stage. A failure during setup or teardown is an error,
// not a test failure; runners that classify errors natively pass through.
func (e Event) EffectiveStatus() Status {
	if e.Outcome == StatusFailed && (e.Stage == StageSetup || e.Stage == StageTeardown) {
		return StatusError
	}
	return e.Outcome
}
