package testmeta

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/testmeta/go-testmeta/flags"
)

// Config holds everything the service needs for one ingest pass.
type Config struct {
	Log            log.Logger
	EventsPath     string
	OutputPath     string
	Indent         int
	Summary        bool
	SummaryDetails bool
	CaptureDir     string
}

// fileConfig mirrors the optional YAML config file. Flags set on the
// command line take precedence over file values.
type fileConfig struct {
	Events         string `yaml:"events,omitempty"`
	Output         string `yaml:"output,omitempty"`
	Indent         *int   `yaml:"indent,omitempty"`
	Summary        *bool  `yaml:"summary,omitempty"`
	SummaryDetails *bool  `yaml:"summary_details,omitempty"`
	CaptureDir     string `yaml:"capture_dir,omitempty"`
}

// NewConfig builds a validated Config from CLI flags and the optional YAML
// config file.
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	cfg := &Config{
		Log:            logger,
		EventsPath:     ctx.String(flags.Events.Name),
		OutputPath:     ctx.String(flags.Output.Name),
		Indent:         ctx.Int(flags.Indent.Name),
		Summary:        ctx.Bool(flags.Summary.Name),
		SummaryDetails: ctx.Bool(flags.SummaryDetails.Name),
		CaptureDir:     ctx.String(flags.CaptureDir.Name),
	}

	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		if err := cfg.applyFile(ctx, path); err != nil {
			return nil, err
		}
	}

	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.EventsPath == "" {
		return nil, fmt.Errorf("an event stream is required (--%s or the config file)", flags.Events.Name)
	}
	if cfg.Indent < 0 {
		return nil, fmt.Errorf("indent must not be negative, got %d", cfg.Indent)
	}
	return cfg, nil
}

func (c *Config) applyFile(ctx *cli.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if c.EventsPath == "" {
		c.EventsPath = fc.Events
	}
	if c.OutputPath == "" {
		c.OutputPath = fc.Output
	}
	if !ctx.IsSet(flags.Indent.Name) && fc.Indent != nil {
		c.Indent = *fc.Indent
	}
	if !ctx.IsSet(flags.Summary.Name) && fc.Summary != nil {
		c.Summary = *fc.Summary
	}
	if !ctx.IsSet(flags.SummaryDetails.Name) && fc.SummaryDetails != nil {
		c.SummaryDetails = *fc.SummaryDetails
	}
	if c.CaptureDir == "" {
		c.CaptureDir = fc.CaptureDir
	}
	return nil
}
