package types

// Status represents the possible outcomes of a stage or a run
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// statusRank orders statuses by severity for run roll-ups.
// Higher rank dominates: error > failed > skipped > passed.
var statusRank = map[Status]int{
	StatusPassed:  0,
	StatusSkipped: 1,
	StatusFailed:  2,
	StatusError:   3,
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// WorstStatus returns the most severe status among the given statuses.
// Statuses outside the closed set (including the zero value for stages that
// never ran) do not contribute. With no contributing statuses the result is
// StatusPassed.
func WorstStatus(statuses ...Status) Status {
	worst := StatusPassed
	for _, s := range statuses {
		rank, ok := statusRank[s]
		if !ok {
			continue
		}
		if rank > statusRank[worst] {
			worst = s
		}
	}
	return worst
}

// Stage identifies one phase of a test execution
type Stage string

const (
	StageSetup    Stage = "setup"
	StageCall     Stage = "call"
	StageTeardown Stage = "teardown"
)

// Valid reports whether s is one of setup, call or teardown.
func (s Stage) Valid() bool {
	switch s {
	case StageSetup, StageCall, StageTeardown:
		return true
	}
	return false
}
