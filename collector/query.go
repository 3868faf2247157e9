package collector

import (
	"github.com/testmeta/go-testmeta/types"
)

// Query surface. All methods here are pure reads over the owned records:
// they never mutate state, and a missing test is an explicit absence, never
// an error.

// TestByID looks up a test by its stable hashed identifier.
func (c *Collector) TestByID(id string) (*types.TestMetadata, bool) {
	tm, ok := c.tests.Get(id)
	return tm, ok
}

// TestByNodeID looks up a test by any nodeid it was observed under.
func (c *Collector) TestByNodeID(nodeid string) (*types.TestMetadata, bool) {
	tm, ok := c.byNodeID[nodeid]
	return tm, ok
}

// Tests returns all tests in collection order.
func (c *Collector) Tests() []*types.TestMetadata {
	out := make([]*types.TestMetadata, 0, c.tests.Len())
	for pair := c.tests.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// TestsByFilename returns all tests whose file basename matches exactly.
func (c *Collector) TestsByFilename(filename string) []*types.TestMetadata {
	var out []*types.TestMetadata
	for pair := c.tests.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Filename == filename {
			out = append(out, pair.Value)
		}
	}
	return out
}

// TestsByStatus returns the tests whose most recent run has the given
// status. Tests that never ran match nothing.
func (c *Collector) TestsByStatus(status types.Status) []*types.TestMetadata {
	var out []*types.TestMetadata
	for pair := c.tests.Oldest(); pair != nil; pair = pair.Next() {
		if run := pair.Value.LatestRun(); run != nil && run.Status == status {
			out = append(out, pair.Value)
		}
	}
	return out
}

// FailedTests returns the tests whose most recent run failed.
func (c *Collector) FailedTests() []*types.TestMetadata {
	return c.TestsByStatus(types.StatusFailed)
}

// PassedTests returns the tests whose most recent run passed.
func (c *Collector) PassedTests() []*types.TestMetadata {
	return c.TestsByStatus(types.StatusPassed)
}

// SkippedTests returns the tests whose most recent run was skipped.
func (c *Collector) SkippedTests() []*types.TestMetadata {
	return c.TestsByStatus(types.StatusSkipped)
}

// Session returns the session aggregate.
func (c *Collector) Session() *types.SessionMetadata {
	return c.session
}

// SessionStats derives the whole-run counters. TotalTests counts the
// distinct test entries, matching the basis of the per-status counts: each
// test contributes its most recent run's status, so the counts sum to the
// number of tests that ran.
func (c *Collector) SessionStats() types.SessionStats {
	stats := types.SessionStats{TotalTests: c.tests.Len()}
	for pair := c.tests.Oldest(); pair != nil; pair = pair.Next() {
		run := pair.Value.LatestRun()
		if run == nil {
			continue
		}
		switch run.Status {
		case types.StatusPassed:
			stats.TotalPassed++
		case types.StatusFailed:
			stats.TotalFailed++
		case types.StatusSkipped:
			stats.TotalSkipped++
		case types.StatusError:
			stats.TotalErrors++
		}
	}
	return stats
}

// CurrentTest returns the test currently executing, if any.
func (c *Collector) CurrentTest() (*types.TestMetadata, bool) {
	return c.current, c.current != nil
}

// CurrentStage returns the stage of the test currently executing, or the
// empty stage when the collector is idle.
func (c *Collector) CurrentStage() types.Stage {
	if c.current == nil {
		return ""
	}
	return c.current.CurrentStage
}
