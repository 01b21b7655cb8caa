package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/baseline"
	"github.com/sartorproj/goacm/lsq"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/trend"
)

// Run is a validated configuration shared by every stage of an analysis.
type Run struct {
	Index    timeindex.Index
	Window   goacm.Window
	Trend    *trend.Config
	Baseline *baseline.Config

	CumulativeStartWeeks []int
	YearlyTotalsFrom     int
	YearlyTotalsTo       int
	TopWeeks             int
	CorrelationFrom      time.Time // Zero means all dates
	MovingAverageWeeks   int

	Source *Config
}

// Validate checks the configuration and resolves it into a Run.
func (c *Config) Validate() (*Run, error) {
	m := c.Model

	epoch, err := parseDate("model.epoch", m.Epoch)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("model.baseline_start", m.BaselineStart)
	if err != nil {
		return nil, err
	}
	cutoff, err := parseDate("model.cutoff", m.Cutoff)
	if err != nil {
		return nil, err
	}
	window, err := goacm.NewWindow(start, cutoff)
	if err != nil {
		return nil, err
	}

	if m.AveragingIntervalDays <= 0 {
		return nil, invalid("model.averaging_interval_days", m.AveragingIntervalDays)
	}
	if m.PeriodDays <= 0 {
		return nil, invalid("model.period_days", m.PeriodDays)
	}
	if m.MaxIterations <= 0 {
		return nil, invalid("model.max_iterations", m.MaxIterations)
	}
	if m.ExtrapolationSlopeYears < 0 {
		return nil, invalid("model.extrapolation_slope_years", m.ExtrapolationSlopeYears)
	}
	strategy, err := trend.ParseStrategy(m.AnchorStrategy)
	if err != nil {
		return nil, err
	}

	forecasts := make([]trend.ForecastPoint, 0, len(m.Forecasts))
	for i, fc := range m.Forecasts {
		d, err := parseDate(fmt.Sprintf("model.forecasts[%d].date", i), fc.Date)
		if err != nil {
			return nil, err
		}
		if fc.YearlyTotal <= 0 {
			return nil, invalid(fmt.Sprintf("model.forecasts[%d].yearly_total", i), fc.YearlyTotal)
		}
		forecasts = append(forecasts, trend.ForecastPoint{Date: d, YearlyTotal: fc.YearlyTotal})
	}

	e := c.Excess
	for _, w := range e.CumulativeStartWeeks {
		if w < 1 || w > 53 {
			return nil, invalid("excess.cumulative_start_weeks", w)
		}
	}
	if e.YearlyTotalsFrom > e.YearlyTotalsTo {
		return nil, fmt.Errorf("%w: excess.yearly_totals_from %d after yearly_totals_to %d",
			goacm.ErrConfiguration, e.YearlyTotalsFrom, e.YearlyTotalsTo)
	}
	if e.TopWeeks < 0 {
		return nil, invalid("excess.top_weeks", e.TopWeeks)
	}
	if e.ResidualLags < 0 {
		return nil, invalid("excess.residual_lags", e.ResidualLags)
	}
	if e.MovingAverageWeeks < 1 {
		return nil, invalid("excess.moving_average_weeks", e.MovingAverageWeeks)
	}
	var corrFrom time.Time
	if e.CorrelationFrom != "" {
		if corrFrom, err = parseDate("excess.correlation_from", e.CorrelationFrom); err != nil {
			return nil, err
		}
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return nil, err
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		return nil, invalid("logging.format", c.Logging.Format)
	}

	solver := lsq.DefaultSettings()
	solver.MaxIterations = m.MaxIterations

	return &Run{
		Index:  timeindex.New(epoch),
		Window: window,
		Trend: &trend.Config{
			Strategy:     strategy,
			IntervalDays: m.AveragingIntervalDays,
			Forecasts:    forecasts,
			Extrapolate:  m.Extrapolate,
			SlopeYears:   m.ExtrapolationSlopeYears,
		},
		Baseline: &baseline.Config{
			PeriodDays:       m.PeriodDays,
			InitialPhaseDays: m.InitialPhaseDays,
			InitialAmplitude: m.InitialAmplitude,
			CoOptimize:       m.CoOptimize,
			Solver:           solver,
			ResidualLags:     e.ResidualLags,
		},
		CumulativeStartWeeks: append([]int(nil), e.CumulativeStartWeeks...),
		YearlyTotalsFrom:     e.YearlyTotalsFrom,
		YearlyTotalsTo:       e.YearlyTotalsTo,
		TopWeeks:             e.TopWeeks,
		CorrelationFrom:      corrFrom,
		MovingAverageWeeks:   e.MovingAverageWeeks,
		Source:               c,
	}, nil
}

func parseDate(key, value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", goacm.ErrConfiguration, key, value)
	}
	return d, nil
}

func invalid(key string, value any) error {
	return fmt.Errorf("%w: %s = %v", goacm.ErrConfiguration, key, value)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: logging.level %q", goacm.ErrConfiguration, s)
	}
	return level, nil
}

// NewLogger builds the run logger writing to w.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(l.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// WriteYAML writes the configuration as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// SaveYAML writes the configuration to path, creating parent directories.
func (c *Config) SaveYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
