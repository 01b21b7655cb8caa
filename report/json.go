package report

import (
	"io"
	"math"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sartorproj/goacm/pipeline"
	"github.com/sartorproj/goacm/timeindex"
)

// Document is the JSON summary of an analysis.
type Document struct {
	Epoch        string          `json:"epoch"`
	Window       string          `json:"window"`
	Fit          FitDoc          `json:"fit"`
	Anchors      []AnchorDoc     `json:"anchors"`
	WindowExcess float64         `json:"window_excess"`
	WindowDeaths float64         `json:"window_deaths"`
	WindowWeeks  int             `json:"window_weeks"`
	PostCutoff   float64         `json:"post_cutoff_excess"`
	SeasonTotals []SeasonDoc     `json:"season_totals,omitempty"`
	YearlyTotals []YearlyDoc     `json:"yearly_totals,omitempty"`
	TopWeeks     []WeekDoc       `json:"top_weeks,omitempty"`
	Correlation  *CorrelationDoc `json:"correlation,omitempty"`
	NetExcessSum *float64        `json:"net_excess_sum,omitempty"`
}

// FitDoc describes the seasonal fit.
type FitDoc struct {
	PhaseDays       float64   `json:"phase_days"`
	PhaseRadians    float64   `json:"phase_radians"`
	Amplitude       float64   `json:"amplitude"`
	PhaseStdErr     *float64  `json:"phase_std_err,omitempty"`
	AmplitudeStdErr *float64  `json:"amplitude_std_err,omitempty"`
	CoOptimized     bool      `json:"co_optimized"`
	Observations    int       `json:"observations"`
	RMSE            float64   `json:"rmse"`
	Iterations      int       `json:"iterations"`
	Convergence     string    `json:"convergence"`
	ResidualACF     []float64 `json:"residual_acf,omitempty"`
	LjungBoxQ       *float64  `json:"ljung_box_q,omitempty"`
	DurbinWatson    *float64  `json:"durbin_watson,omitempty"`
}

// AnchorDoc is a trend anchor.
type AnchorDoc struct {
	Date    string  `json:"date"`
	Kind    string  `json:"kind"`
	Initial float64 `json:"initial"`
	Fitted  float64 `json:"fitted"`
}

// SeasonDoc is the final cumulative excess of a season.
type SeasonDoc struct {
	StartWeek int     `json:"start_week"`
	Season    string  `json:"season"`
	Total     float64 `json:"total"`
	Weeks     int     `json:"weeks"`
}

// YearlyDoc compares model and observed yearly mortality.
type YearlyDoc struct {
	Year     int     `json:"year"`
	Model    float64 `json:"model"`
	Observed float64 `json:"observed"`
	Weeks    int     `json:"weeks"`
}

// WeekDoc is a single week.
type WeekDoc struct {
	Week   string  `json:"week"`
	Date   string  `json:"date"`
	Deaths float64 `json:"deaths"`
}

// CorrelationDoc summarizes the z-score comparison.
type CorrelationDoc struct {
	Weeks     int     `json:"weeks"`
	R         float64 `json:"r"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// NewDocument builds the JSON summary of res.
func NewDocument(res *pipeline.Result) *Document {
	s := res.Summary
	doc := &Document{
		Epoch:  res.Run.Index.Epoch.Format(time.DateOnly),
		Window: s.Window,
		Fit: FitDoc{
			PhaseDays:       s.PhaseDays,
			PhaseRadians:    s.PhaseRadians,
			Amplitude:       s.Amplitude,
			PhaseStdErr:     finite(s.PhaseStdErr),
			AmplitudeStdErr: finite(s.AmplitudeStdErr),
			CoOptimized:     s.CoOptimized,
			Observations:    s.NObs,
			RMSE:            s.RMSE,
			Iterations:      s.Iterations,
			Convergence:     s.Convergence,
			DurbinWatson:    finite(s.DurbinWatson),
		},
		WindowExcess: res.Excess.WindowExcess,
		WindowDeaths: res.Excess.WindowDeaths,
		WindowWeeks:  res.Excess.WindowCount,
	}
	if s.ResidualACF != nil {
		doc.Fit.ResidualACF = s.ResidualACF.Values
	}
	if lb := s.LjungBox; lb != nil {
		doc.Fit.LjungBoxQ = finite(lb.Statistic)
	}

	for i, a := range res.Model.Anchors.Anchors {
		doc.Anchors = append(doc.Anchors, AnchorDoc{
			Date:    a.Date.Format(time.DateOnly),
			Kind:    a.Kind.String(),
			Initial: res.Anchors.Anchors[i].Value,
			Fitted:  a.Value,
		})
	}

	for _, p := range res.Excess.After(res.Run.Window.Cutoff) {
		doc.PostCutoff += p.Excess
	}

	for _, w := range res.Run.CumulativeStartWeeks {
		for _, season := range res.Seasons[w] {
			doc.SeasonTotals = append(doc.SeasonTotals, SeasonDoc{
				StartWeek: w,
				Season:    season.Label(),
				Total:     season.Total(),
				Weeks:     season.Cumulative.Len(),
			})
		}
	}

	for _, yt := range res.YearlyTotals {
		doc.YearlyTotals = append(doc.YearlyTotals, YearlyDoc(yt))
	}

	for _, p := range res.TopWeeks {
		doc.TopWeeks = append(doc.TopWeeks, WeekDoc{
			Week:   timeindex.WeekLabel(p.Date),
			Date:   p.Date.Format(time.DateOnly),
			Deaths: p.Value,
		})
	}

	if c := res.Correlation; c != nil {
		doc.Correlation = &CorrelationDoc{
			Weeks:     c.N(),
			R:         c.R,
			Slope:     c.Trend.Slope,
			Intercept: c.Trend.Intercept,
		}
	}

	if res.NetExcess != nil {
		sum := res.NetExcess.Sum()
		doc.NetExcessSum = &sum
	}
	return doc
}

// WriteJSON writes the JSON summary of res.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res))
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
