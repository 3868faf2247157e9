// Package logging persists captured output from failing runs to per-test
// log files.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/testmeta/go-testmeta/collector"
	"github.com/testmeta/go-testmeta/types"
)

// RunDirectoryPrefix prefixes the per-ingest directory name.
const RunDirectoryPrefix = "testrun-"

// CaptureLogger writes the captured output of failed and errored runs under
// baseDir/testrun-<runID>/failed/, one file per run. Captured text is
// stripped of ANSI escape sequences before writing.
type CaptureLogger struct {
	baseDir string
	runID   string
}

// NewCaptureLogger creates the directory layout for this ingest run.
func NewCaptureLogger(baseDir, runID string) (*CaptureLogger, error) {
	failedDir := filepath.Join(baseDir, RunDirectoryPrefix+runID, "failed")
	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", failedDir, err)
	}
	return &CaptureLogger{baseDir: baseDir, runID: runID}, nil
}

// FailedDir returns the directory holding failure capture files.
func (l *CaptureLogger) FailedDir() string {
	return filepath.Join(l.baseDir, RunDirectoryPrefix+l.runID, "failed")
}

// WriteFailures writes one capture file per failed or errored run in the
// snapshot. Already-written files are overwritten.
func (l *CaptureLogger) WriteFailures(snap *collector.Snapshot) error {
	for pair := snap.Tests.Oldest(); pair != nil; pair = pair.Next() {
		ts := pair.Value
		for i, run := range ts.Runs {
			if run.Status != string(types.StatusFailed) && run.Status != string(types.StatusError) {
				continue
			}
			name := fmt.Sprintf("%s_run%d.log", safeFilename(ts.TestCase), i+1)
			path := filepath.Join(l.FailedDir(), name)
			content := formatRunCapture(ts, run)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write capture file %s: %w", path, err)
			}
		}
	}
	return nil
}

func formatRunCapture(ts *collector.TestSnapshot, run collector.RunSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test: %s\n", ts.TestCase)
	fmt.Fprintf(&b, "Node: %s\n", ts.NodeID)
	fmt.Fprintf(&b, "File: %s:%d\n", ts.RelPath, ts.LineNo)
	fmt.Fprintf(&b, "Status: %s\n", run.Status)

	stages := []struct {
		name  string
		stage collector.StageSnapshot
	}{
		{"setup", run.Setup},
		{"call", run.Call},
		{"teardown", run.Teardown},
	}
	for _, s := range stages {
		if s.stage.Status == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- %s (%s) ---\n", s.name, s.stage.Status)
		writeCaptureSection(&b, "stdout", s.stage.Capture.Stdout)
		writeCaptureSection(&b, "stderr", s.stage.Capture.Stderr)
		writeCaptureSection(&b, "log", s.stage.Capture.Log)
		writeCaptureSection(&b, "longrepr", s.stage.Capture.LongRepr)
	}
	return b.String()
}

func writeCaptureSection(b *strings.Builder, label, content string) {
	if content == "" {
		return
	}
	clean := stripansi.Strip(content)
	fmt.Fprintf(b, "%s:\n%s\n", label, strings.TrimRight(clean, "\n"))
}

// safeFilename replaces characters that are unsafe in file names.
func safeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	out := replacer.Replace(s)
	if out == "" {
		out = "unnamed"
	}
	return out
}
