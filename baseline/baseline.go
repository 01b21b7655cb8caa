package baseline

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/lsq"
	"github.com/sartorproj/goacm/stats"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
	"github.com/sartorproj/goacm/trend"
)

// DefaultPeriodDays is the mean length of a year.
const DefaultPeriodDays = 365.24

// plausibleAmplitude bounds the seasonal amplitude seen in real mortality.
const plausibleAmplitude = 0.3

// Config holds seasonal fit parameters.
type Config struct {
	PeriodDays       float64       // Seasonal period in days (default: 365.24)
	InitialPhaseDays float64       // Starting phase offset (default: -51)
	InitialAmplitude float64       // Starting amplitude fraction (default: 0)
	CoOptimize       bool          // Fit historical anchor values jointly (default: true)
	Solver           *lsq.Settings // Solver settings (default: lsq.DefaultSettings)
	ResidualLags     int           // Residual ACF lags in the summary (default: 10)
	Logger           *slog.Logger  // Diagnostics (default: slog.Default)
}

// DefaultConfig returns the default fit configuration.
func DefaultConfig() *Config {
	return &Config{
		PeriodDays:       DefaultPeriodDays,
		InitialPhaseDays: -51,
		InitialAmplitude: 0,
		CoOptimize:       true,
		Solver:           lsq.DefaultSettings(),
		ResidualLags:     10,
	}
}

// Parameters are the fitted baseline parameters.
type Parameters struct {
	PhaseOffset  float64   // Days
	Amplitude    float64   // Fraction of the trend
	AnchorValues []float64 // Historical anchor values, revised when co-optimized
}

// Model is a fitted seasonal baseline.
type Model struct {
	Params     Parameters
	StdErrors  []float64 // Standard errors of the packed parameters; nil if unavailable
	Anchors    *trend.AnchorSet
	Trend      *trend.Function
	Window     goacm.Window
	Index      timeindex.Index
	PeriodDays float64
	CoOptimize bool

	Cost       float64
	Iterations int
	Status     lsq.Status

	fitted    *timeseries.Series // Fitting-window observations
	residuals []float64          // observed - baseline over fitted
	acfLags   int
}

// Fit estimates the baseline parameters from the fitting-window observations
// of series.
func Fit(series *timeseries.Series, window goacm.Window, idx timeindex.Index, anchors *trend.AnchorSet, cfg *Config) (*Model, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PeriodDays <= 0 {
		return nil, fmt.Errorf("%w: seasonal period %g days", goacm.ErrConfiguration, cfg.PeriodDays)
	}
	if !anchors.Window.Equal(window) {
		return nil, fmt.Errorf("%w: anchors estimated over %s but fitting %s", goacm.ErrConfiguration, anchors.Window, window)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fit := series.Between(window.Start, window.Cutoff)
	xs := idx.XS(fit.Dates)
	ys := fit.Values

	p0 := []float64{cfg.InitialPhaseDays, cfg.InitialAmplitude}
	fixedTrend, err := anchors.Function()
	if err != nil {
		return nil, err
	}
	if cfg.CoOptimize {
		p0 = append(p0, anchors.HistoricalValues()...)
	}
	if len(xs) < len(p0) {
		return nil, fmt.Errorf("%w: %d observations in %s for %d parameters",
			goacm.ErrInsufficientData, len(xs), window, len(p0))
	}

	period := cfg.PeriodDays
	trendAt := func(p []float64) (*trend.Function, error) {
		if !cfg.CoOptimize {
			return fixedTrend, nil
		}
		return anchors.FunctionWith(p[2:])
	}

	problem := lsq.Problem{
		NumResiduals: len(xs),
		Residuals: func(dst, p []float64) {
			fn, err := trendAt(p)
			if err != nil {
				for i := range dst {
					dst[i] = math.NaN()
				}
				return
			}
			for i, x := range xs {
				dst[i] = fn.Eval(x)*Seasonal(x, p[0], p[1], period) - ys[i]
			}
		},
	}

	logger.Debug("fitting seasonal baseline",
		"window", window.String(),
		"observations", len(xs),
		"parameters", len(p0),
		"co_optimize", cfg.CoOptimize)

	res, err := lsq.Solve(problem, p0, cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("seasonal fit over %s: %w", window, err)
	}

	params := Parameters{PhaseOffset: res.Params[0], Amplitude: res.Params[1]}
	params.PhaseOffset, params.Amplitude = canonical(params.PhaseOffset, params.Amplitude, period)
	if cfg.CoOptimize {
		params.AnchorValues = append([]float64(nil), res.Params[2:]...)
	} else {
		params.AnchorValues = anchors.HistoricalValues()
	}

	revised, err := anchors.WithValues(params.AnchorValues)
	if err != nil {
		return nil, err
	}
	fn, err := revised.Function()
	if err != nil {
		return nil, err
	}

	m := &Model{
		Params:     params,
		StdErrors:  res.StdErrors,
		Anchors:    revised,
		Trend:      fn,
		Window:     window,
		Index:      idx,
		PeriodDays: period,
		CoOptimize: cfg.CoOptimize,
		Cost:       res.Cost,
		Iterations: res.Iterations,
		Status:     res.Status,
		fitted:     fit,
		acfLags:    cfg.ResidualLags,
	}
	m.residuals = make([]float64, len(xs))
	for i, x := range xs {
		m.residuals[i] = ys[i] - m.Eval(x)
	}

	logger.Info("seasonal baseline fitted",
		"phase_days", params.PhaseOffset,
		"phase_rad", m.PhaseRadians(),
		"amplitude", params.Amplitude,
		"iterations", res.Iterations,
		"convergence", res.Status.String(),
		"cost", res.Cost)
	if math.Abs(params.Amplitude) > plausibleAmplitude {
		logger.Warn("seasonal amplitude outside plausible range",
			"amplitude", params.Amplitude,
			"limit", plausibleAmplitude)
	}

	return m, nil
}

// Seasonal returns the multiplicative seasonal factor 1 + a*cos(2π(x+phase)/period).
func Seasonal(x, phase, amplitude, period float64) float64 {
	return 1 + amplitude*math.Cos(2*math.Pi*(x+phase)/period)
}

// canonical folds a negative amplitude into a half-period phase shift and
// wraps the phase into (-period/2, period/2]. The function is unchanged.
func canonical(phase, amplitude, period float64) (float64, float64) {
	if amplitude < 0 {
		amplitude = -amplitude
		phase += period / 2
	}
	phase = math.Mod(phase, period)
	if phase > period/2 {
		phase -= period
	} else if phase <= -period/2 {
		phase += period
	}
	return phase, amplitude
}

// Eval returns the baseline weekly rate at x days since the epoch.
func (m *Model) Eval(x float64) float64 {
	return m.Trend.Eval(x) * Seasonal(x, m.Params.PhaseOffset, m.Params.Amplitude, m.PeriodDays)
}

// EvalAll evaluates the baseline at every x.
func (m *Model) EvalAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.Eval(x)
	}
	return out
}

// At returns the baseline at date d.
func (m *Model) At(d time.Time) float64 {
	return m.Eval(m.Index.X(d))
}

// TrendAt returns the trend alone at date d.
func (m *Model) TrendAt(d time.Time) float64 {
	return m.Trend.Eval(m.Index.X(d))
}

// Integrate returns the integral of the baseline over [a, b].
func (m *Model) Integrate(a, b float64) float64 {
	knots, _ := m.Trend.Knots()
	return trend.Integral(m.Eval, a, b, knots)
}

// YearlyTotal returns the deaths implied by the baseline for a calendar year.
func (m *Model) YearlyTotal(year int) float64 {
	a := m.Index.X(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
	b := m.Index.X(time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC))
	return math.Round(m.Integrate(a, b) / 7)
}

// PhaseRadians returns the phase offset as an angle.
func (m *Model) PhaseRadians() float64 {
	return 2 * math.Pi * m.Params.PhaseOffset / m.PeriodDays
}

// Residuals returns observed minus baseline over the fitting window.
func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// Summary describes a fitted model.
type Summary struct {
	Window          string
	PhaseDays       float64
	PhaseRadians    float64
	Amplitude       float64
	PhaseStdErr     float64 // NaN when unavailable
	AmplitudeStdErr float64 // NaN when unavailable
	Anchors         []trend.Anchor
	CoOptimized     bool
	NObs            int
	Cost            float64
	RMSE            float64
	ResidualSum     float64
	Iterations      int
	Convergence     string
	ResidualACF     *stats.ACFResult
	SignificantLags []int
	LjungBox        *stats.Portmanteau // nil for too few residuals
	DurbinWatson    float64            // NaN when undefined
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	s := &Summary{
		Window:          m.Window.String(),
		PhaseDays:       m.Params.PhaseOffset,
		PhaseRadians:    m.PhaseRadians(),
		Amplitude:       m.Params.Amplitude,
		PhaseStdErr:     math.NaN(),
		AmplitudeStdErr: math.NaN(),
		Anchors:         append([]trend.Anchor(nil), m.Anchors.Anchors...),
		CoOptimized:     m.CoOptimize,
		NObs:            len(m.residuals),
		Cost:            m.Cost,
		Iterations:      m.Iterations,
		Convergence:     m.Status.String(),
	}
	if len(m.StdErrors) >= 2 {
		s.PhaseStdErr = m.StdErrors[0]
		s.AmplitudeStdErr = m.StdErrors[1]
	}

	for _, r := range m.residuals {
		s.ResidualSum += r
	}
	if n := len(m.residuals); n > 0 {
		s.RMSE = math.Sqrt(m.Cost / float64(n))
	}

	if acf := stats.ACFWithConfidence(m.residuals, m.acfLags); acf != nil {
		s.ResidualACF = acf
		s.SignificantLags = stats.SignificantLags(acf.Values, acf.ConfBounds)
	}
	s.LjungBox = stats.LjungBox(m.residuals, m.acfLags)
	s.DurbinWatson = stats.DurbinWatson(m.residuals)
	return s
}
