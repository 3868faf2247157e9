// Package reporting renders human-readable views of a collected session.
package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testmeta/go-testmeta/collector"
	"github.com/testmeta/go-testmeta/types"
)

// SummaryFormatter renders a session snapshot as an ASCII table, one row
// per test with its latest-run status, plus a failed-test list.
type SummaryFormatter struct {
	title       string
	showDetails bool
}

// NewSummaryFormatter creates a formatter. With showDetails, the failure
// representation of each failed test is appended below the table.
func NewSummaryFormatter(title string, showDetails bool) *SummaryFormatter {
	if title == "" {
		title = "TEST SUMMARY"
	}
	return &SummaryFormatter{title: title, showDetails: showDetails}
}

// Format renders the snapshot.
func (f *SummaryFormatter) Format(snap *collector.Snapshot) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(f.title)

	t.AppendHeader(table.Row{"TEST", "FILE", "RUNS", "PASSED", "FAILED", "SKIPPED", "ERRORS", "DURATION", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TEST", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "RUNS", Align: text.AlignRight},
		{Name: "PASSED", Align: text.AlignRight},
		{Name: "FAILED", Align: text.AlignRight},
		{Name: "SKIPPED", Align: text.AlignRight},
		{Name: "ERRORS", Align: text.AlignRight},
		{Name: "DURATION", Align: text.AlignRight},
	})

	var failed []*collector.TestSnapshot
	for pair := snap.Tests.Oldest(); pair != nil; pair = pair.Next() {
		ts := pair.Value
		status := latestRunStatus(ts)
		if status == string(types.StatusFailed) || status == string(types.StatusError) {
			failed = append(failed, ts)
		}
		t.AppendRow(table.Row{
			ts.TestCase,
			ts.Filename,
			ts.Stats.TotalRuns,
			ts.Stats.TotalPassed,
			ts.Stats.TotalFailed,
			ts.Stats.TotalSkipped,
			ts.Stats.TotalErrors,
			formatSeconds(ts.Duration),
			status,
		})
	}

	stats := snap.Session.Stats
	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d tests", stats.TotalTests),
		"",
		stats.TotalPassed,
		stats.TotalFailed,
		stats.TotalSkipped,
		stats.TotalErrors,
		formatSeconds(snap.Session.Duration),
		"",
	})

	switch {
	case stats.TotalFailed > 0 || stats.TotalErrors > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case stats.TotalSkipped > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.Render()

	if len(failed) > 0 {
		buf.WriteString("\nFailing tests:\n")
		for _, ts := range failed {
			fmt.Fprintf(&buf, "  %s (%s)\n", ts.TestCase, ts.RelPath)
			if f.showDetails {
				if repr := latestLongRepr(ts); repr != "" {
					fmt.Fprintf(&buf, "    %s\n", repr)
				}
			}
		}
	}

	return buf.String()
}

func latestRunStatus(ts *collector.TestSnapshot) string {
	if len(ts.Runs) == 0 {
		return "not run"
	}
	return ts.Runs[len(ts.Runs)-1].Status
}

func latestLongRepr(ts *collector.TestSnapshot) string {
	if len(ts.Runs) == 0 {
		return ""
	}
	run := ts.Runs[len(ts.Runs)-1]
	for _, stage := range []collector.StageSnapshot{run.Call, run.Setup, run.Teardown} {
		if stage.Capture.LongRepr != "" {
			return stage.Capture.LongRepr
		}
	}
	return ""
}

func formatSeconds(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond).String()
}
