// Package commands implements the goacm subcommands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goacm/config"
	"github.com/sartorproj/goacm/pipeline"
	"github.com/sartorproj/goacm/report"
	"github.com/sartorproj/goacm/timeseries"
)

const (
	fitCmdUse    = "fit"
	fitCmdShort  = "Fit the seasonal baseline and export excess mortality"
	manifestFile = "manifest.yaml"
)

// ErrNoDeaths is returned when no death CSV is configured.
var ErrNoDeaths = errors.New("no deaths CSV given (use --deaths or input.deaths)")

type fitOptions struct {
	configPath string
	deaths     string
	output     string
	noChart    bool
	quiet      bool
}

// NewFitCommand creates the fit subcommand.
func NewFitCommand() *cobra.Command {
	var o fitOptions

	cmd := &cobra.Command{
		Use:   fitCmdUse,
		Short: fitCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFit(&o, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "configuration file (default ./goacm.yaml)")
	cmd.Flags().StringVar(&o.deaths, "deaths", "", "weekly all-cause deaths CSV")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output directory")
	cmd.Flags().BoolVar(&o.noChart, "no-chart", false, "skip the HTML chart")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "do not print summary tables")

	return cmd
}

func runFit(o *fitOptions, stdout, stderr io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.deaths != "" {
		cfg.Input.Deaths = o.deaths
	}
	if o.output != "" {
		cfg.Output.Directory = o.output
	}
	if o.noChart {
		cfg.Output.Chart = false
	}

	run, err := cfg.Validate()
	if err != nil {
		return err
	}
	logger, err := cfg.Logging.NewLogger(stderr)
	if err != nil {
		return err
	}

	in, err := loadInputs(cfg.Input, logger)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(run, in, logger)
	if err != nil {
		return err
	}

	if !o.quiet {
		if err := report.WriteTables(stdout, res); err != nil {
			return err
		}
		printFit(stdout, res)
	}

	written, err := report.Save(res, cfg.Output.Directory, cfg.Output.Chart)
	if err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	manifest := filepath.Join(cfg.Output.Directory, manifestFile)
	if err := cfg.SaveYAML(manifest); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	written = append(written, manifest)

	for _, path := range written {
		logger.Info("wrote output", "path", path)
	}
	return nil
}

func loadInputs(ic config.InputConfig, logger *slog.Logger) (pipeline.Inputs, error) {
	var in pipeline.Inputs
	if ic.Deaths == "" {
		return in, ErrNoDeaths
	}

	load := func(path, column string, trim int) (*timeseries.Series, error) {
		opts := timeseries.DefaultCSVOptions()
		opts.DateColumn = ic.DateColumn
		opts.ValueColumn = column
		opts.TrimTrailing = trim
		s, err := timeseries.LoadCSV(path, opts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", column, err)
		}
		logger.Debug("loaded series", "path", path, "column", column, "observations", s.Len())
		return s, nil
	}

	var err error
	if in.Deaths, err = load(ic.Deaths, ic.ValueColumn, ic.TrimTrailing); err != nil {
		return in, err
	}
	in.Deaths = in.Deaths.Named("deaths")
	if ic.Competing != "" {
		if in.Competing, err = load(ic.Competing, ic.CompetingColumn, ic.TrimTrailing); err != nil {
			return in, err
		}
	}
	if ic.ZScores != "" {
		if in.ZScores, err = load(ic.ZScores, ic.ZScoreColumn, 0); err != nil {
			return in, err
		}
	}
	return in, nil
}

func printFit(w io.Writer, res *pipeline.Result) {
	s := res.Summary
	color.New(color.FgGreen).Fprintf(w, "Baseline fitted in %d iterations (%s convergence)\n", s.Iterations, s.Convergence)
	color.New(color.FgCyan).Fprintf(w, "  Cosine time offset: %.2f days\n", s.PhaseDays)
	color.New(color.FgCyan).Fprintf(w, "  Cosine amplitude:   %.4f\n", s.Amplitude)
	if len(s.SignificantLags) > 0 {
		color.New(color.FgYellow).Fprintf(w, "  Residuals autocorrelated at lags %v\n", s.SignificantLags)
	}
	if c := res.Correlation; c != nil {
		color.New(color.FgCyan).Fprintf(w, "  Excess vs z-score: r=%.3f over %d weeks\n", c.R, c.N())
	}
}
