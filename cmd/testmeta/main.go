package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	testmeta "github.com/testmeta/go-testmeta"
	"github.com/testmeta/go-testmeta/exitcodes"
	"github.com/testmeta/go-testmeta/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "testmeta"
	app.Usage = "Test-run metadata collector"
	app.Description = "testmeta ingests lifecycle events from a host test runner and exports aggregated session metadata"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if testmeta.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if testmeta.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			}
		}
	}

	// Start telemetry
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	if err := app.Run(os.Args); err != nil {
		// The ExitErrHandler has already mapped the error to an exit code;
		// anything still propagating here is unexpected.
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	level := log.LevelInfo
	if ctx.Bool(flags.Verbose.Name) {
		level = log.LevelDebug
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false))
	log.SetDefault(logger)

	cfg, err := testmeta.NewConfig(ctx, logger)
	if err != nil {
		return testmeta.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	svc, err := testmeta.New(cfg)
	if err != nil {
		return testmeta.NewRuntimeError(fmt.Errorf("failed to create service: %w", err))
	}

	return svc.Run(ctx.Context)
}
