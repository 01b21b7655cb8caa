package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultEpoch              = "2020-01-01"
	DefaultBaselineStart      = "2008-01-01"
	DefaultCutoff             = "2020-01-01"
	DefaultAveragingInterval  = 1095
	DefaultPeriodDays         = 365.24
	DefaultAnchorStrategy     = "endpoints"
	DefaultInitialPhaseDays   = -51.0
	DefaultMaxIterations      = 200
	DefaultTopWeeks           = 20
	DefaultResidualLags       = 10
	DefaultMovingAverageWeeks = 7
	DefaultYearlyTotalsFrom   = 1990
	DefaultYearlyTotalsTo     = 2025
	DefaultOutputDirectory    = "data_output"
)

// DefaultCumulativeStartWeeks are the ISO weeks yearly cumulative excess
// restarts at.
var DefaultCumulativeStartWeeks = []int{1, 16}

// Config holds the raw configuration of a run.
type Config struct {
	Input   InputConfig   `mapstructure:"input" yaml:"input"`
	Model   ModelConfig   `mapstructure:"model" yaml:"model"`
	Excess  ExcessConfig  `mapstructure:"excess" yaml:"excess"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// InputConfig names the input CSV files.
type InputConfig struct {
	Deaths       string `mapstructure:"deaths" yaml:"deaths"`
	Competing    string `mapstructure:"competing" yaml:"competing"`
	ZScores      string `mapstructure:"zscores" yaml:"zscores"`
	DateColumn   string `mapstructure:"date_column" yaml:"date_column"`
	ValueColumn  string `mapstructure:"value_column" yaml:"value_column"`
	TrimTrailing int    `mapstructure:"trim_trailing" yaml:"trim_trailing"`

	CompetingColumn string `mapstructure:"competing_column" yaml:"competing_column"`
	ZScoreColumn    string `mapstructure:"zscore_column" yaml:"zscore_column"`
}

// ModelConfig holds the trend and seasonal fit settings.
type ModelConfig struct {
	Epoch                   string           `mapstructure:"epoch" yaml:"epoch"`
	BaselineStart           string           `mapstructure:"baseline_start" yaml:"baseline_start"`
	Cutoff                  string           `mapstructure:"cutoff" yaml:"cutoff"`
	AveragingIntervalDays   int              `mapstructure:"averaging_interval_days" yaml:"averaging_interval_days"`
	PeriodDays              float64          `mapstructure:"period_days" yaml:"period_days"`
	AnchorStrategy          string           `mapstructure:"anchor_strategy" yaml:"anchor_strategy"`
	CoOptimize              bool             `mapstructure:"co_optimize" yaml:"co_optimize"`
	Extrapolate             bool             `mapstructure:"extrapolate" yaml:"extrapolate"`
	ExtrapolationSlopeYears int              `mapstructure:"extrapolation_slope_years" yaml:"extrapolation_slope_years"`
	InitialPhaseDays        float64          `mapstructure:"initial_phase_days" yaml:"initial_phase_days"`
	InitialAmplitude        float64          `mapstructure:"initial_amplitude" yaml:"initial_amplitude"`
	MaxIterations           int              `mapstructure:"max_iterations" yaml:"max_iterations"`
	Forecasts               []ForecastConfig `mapstructure:"forecasts" yaml:"forecasts"`
}

// ForecastConfig is a yearly mortality forecast anchor.
type ForecastConfig struct {
	Date        string  `mapstructure:"date" yaml:"date"`
	YearlyTotal float64 `mapstructure:"yearly_total" yaml:"yearly_total"`
}

// ExcessConfig holds the derived output settings.
type ExcessConfig struct {
	CumulativeStartWeeks []int  `mapstructure:"cumulative_start_weeks" yaml:"cumulative_start_weeks"`
	YearlyTotalsFrom     int    `mapstructure:"yearly_totals_from" yaml:"yearly_totals_from"`
	YearlyTotalsTo       int    `mapstructure:"yearly_totals_to" yaml:"yearly_totals_to"`
	TopWeeks             int    `mapstructure:"top_weeks" yaml:"top_weeks"`
	CorrelationFrom      string `mapstructure:"correlation_from" yaml:"correlation_from"`
	ResidualLags         int    `mapstructure:"residual_lags" yaml:"residual_lags"`
	MovingAverageWeeks   int    `mapstructure:"moving_average_weeks" yaml:"moving_average_weeks"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Chart     bool   `mapstructure:"chart" yaml:"chart"`
}

// Load reads configuration from defaults, the file at path (if non-empty, or
// goacm.yaml in the working directory otherwise) and the environment.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("goacm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Default returns the default configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GOACM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Input defaults.
	v.SetDefault("input.deaths", "")
	v.SetDefault("input.competing", "")
	v.SetDefault("input.zscores", "")
	v.SetDefault("input.date_column", "")
	v.SetDefault("input.value_column", "deaths")
	v.SetDefault("input.trim_trailing", 0)
	v.SetDefault("input.competing_column", "deaths")
	v.SetDefault("input.zscore_column", "zscore")

	// Model defaults.
	v.SetDefault("model.epoch", DefaultEpoch)
	v.SetDefault("model.baseline_start", DefaultBaselineStart)
	v.SetDefault("model.cutoff", DefaultCutoff)
	v.SetDefault("model.averaging_interval_days", DefaultAveragingInterval)
	v.SetDefault("model.period_days", DefaultPeriodDays)
	v.SetDefault("model.anchor_strategy", DefaultAnchorStrategy)
	v.SetDefault("model.co_optimize", true)
	v.SetDefault("model.extrapolate", false)
	v.SetDefault("model.extrapolation_slope_years", 0)
	v.SetDefault("model.initial_phase_days", DefaultInitialPhaseDays)
	v.SetDefault("model.initial_amplitude", 0.0)
	v.SetDefault("model.max_iterations", DefaultMaxIterations)
	v.SetDefault("model.forecasts", []ForecastConfig{})

	// Excess defaults.
	v.SetDefault("excess.cumulative_start_weeks", DefaultCumulativeStartWeeks)
	v.SetDefault("excess.yearly_totals_from", DefaultYearlyTotalsFrom)
	v.SetDefault("excess.yearly_totals_to", DefaultYearlyTotalsTo)
	v.SetDefault("excess.top_weeks", DefaultTopWeeks)
	v.SetDefault("excess.correlation_from", "")
	v.SetDefault("excess.residual_lags", DefaultResidualLags)
	v.SetDefault("excess.moving_average_weeks", DefaultMovingAverageWeeks)

	// Logging defaults.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Output defaults.
	v.SetDefault("output.directory", DefaultOutputDirectory)
	v.SetDefault("output.chart", true)
}
