// Package testmeta wires the event decoder, the metadata collector and the
// reporting sinks into a single-pass observer service.
package testmeta

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/testmeta/go-testmeta/collector"
	"github.com/testmeta/go-testmeta/logging"
	"github.com/testmeta/go-testmeta/reporting"
)

// Service runs one ingest pass: replay the event stream, export the
// snapshot, write failure captures, print the summary.
type Service struct {
	cfg *Config
	c   *collector.Collector

	// Summary destination, overridable in tests.
	Stdout io.Writer
}

// New creates the service and its collector.
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &Service{
		cfg:    cfg,
		c:      collector.New(cfg.Log),
		Stdout: os.Stdout,
	}, nil
}

// Collector exposes the underlying façade for queries after Run.
func (s *Service) Collector() *collector.Collector {
	return s.c
}

// Run performs the ingest pass. It returns a RuntimeError for operational
// failures and a TestFailureError when the observed session recorded failed
// or errored tests, so the CLI can map them onto exit codes.
func (s *Service) Run(ctx context.Context) error {
	events, closeEvents, err := s.openEvents()
	if err != nil {
		return NewRuntimeError(err)
	}
	defer closeEvents()

	dec := collector.NewDecoder(s.cfg.Log)
	delivered, err := dec.Replay(ctx, events, s.c)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to replay event stream: %w", err))
	}
	s.cfg.Log.Info("Event stream ingested", "events", delivered, "run_id", s.c.RunID())

	snap := s.c.Snapshot()

	if s.cfg.OutputPath != "" {
		if err := s.c.ExportJSON(s.cfg.OutputPath, s.cfg.Indent); err != nil {
			return NewRuntimeError(err)
		}
	}

	if s.cfg.CaptureDir != "" {
		capture, err := logging.NewCaptureLogger(s.cfg.CaptureDir, s.c.RunID())
		if err != nil {
			return NewRuntimeError(err)
		}
		if err := capture.WriteFailures(snap); err != nil {
			return NewRuntimeError(err)
		}
	}

	if s.cfg.Summary {
		formatter := reporting.NewSummaryFormatter("", s.cfg.SummaryDetails)
		fmt.Fprint(s.Stdout, formatter.Format(snap))
	}

	stats := s.c.SessionStats()
	if stats.TotalFailed > 0 || stats.TotalErrors > 0 {
		return NewTestFailureError(fmt.Sprintf("%d failed, %d errored of %d tests",
			stats.TotalFailed, stats.TotalErrors, stats.TotalTests))
	}
	return nil
}

func (s *Service) openEvents() (io.Reader, func(), error) {
	if s.cfg.EventsPath == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(s.cfg.EventsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	return f, func() { f.Close() }, nil
}
