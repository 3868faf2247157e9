package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "TESTMETA"

func prefixEnvVar(name string) []string {
	return []string{fmt.Sprintf("%s_%s", EnvVarPrefix, name)}
}

var (
	Events = &cli.StringFlag{
		Name:    "events",
		Value:   "",
		EnvVars: prefixEnvVar("EVENTS"),
		Usage:   "Path to the NDJSON lifecycle-event stream to ingest ('-' for stdin)",
	}
	Output = &cli.StringFlag{
		Name:    "output",
		Value:   "",
		EnvVars: prefixEnvVar("OUTPUT"),
		Usage:   "Path to write the JSON metadata export (omit to skip export)",
	}
	Indent = &cli.IntFlag{
		Name:    "indent",
		Value:   4,
		EnvVars: prefixEnvVar("INDENT"),
		Usage:   "Indentation width for the JSON export (0 for compact output)",
	}
	Summary = &cli.BoolFlag{
		Name:    "summary",
		Value:   true,
		EnvVars: prefixEnvVar("SUMMARY"),
		Usage:   "Print a summary table after ingesting the event stream",
	}
	SummaryDetails = &cli.BoolFlag{
		Name:    "summary-details",
		Value:   false,
		EnvVars: prefixEnvVar("SUMMARY_DETAILS"),
		Usage:   "Include failure representations in the summary output",
	}
	CaptureDir = &cli.StringFlag{
		Name:    "capture-dir",
		Value:   "",
		EnvVars: prefixEnvVar("CAPTURE_DIR"),
		Usage:   "Directory for per-test failure capture logs (omit to disable)",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: prefixEnvVar("CONFIG"),
		Usage:   "Path to a YAML config file (flags take precedence)",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Value:   false,
		EnvVars: prefixEnvVar("VERBOSE"),
		Usage:   "Enable debug logging",
	}
)

var requiredFlags = []cli.Flag{
	Events,
}

var optionalFlags = []cli.Flag{
	Output,
	Indent,
	Summary,
	SummaryDetails,
	CaptureDir,
	ConfigFile,
	Verbose,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}
