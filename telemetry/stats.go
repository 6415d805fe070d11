package telemetry

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats summarizes the flow over a window of frames.
type WindowStats struct {
	WindowStart uint64  `csv:"-"`
	WindowEnd   uint64  `csv:"window_end"`
	SimTimeSec  float64 `csv:"sim_time"`
	Frames      int     `csv:"frames"`

	GridWidth  int `csv:"grid_w"`
	GridHeight int `csv:"grid_h"`

	// Per-frame peak speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// RMS divergence left after projection
	ResidualMean float64 `csv:"residual_mean"`
	ResidualMax  float64 `csv:"residual_max"`

	// Share of frames by pointer mode
	UserPct     float64 `csv:"user_pct"`
	AutoPct     float64 `csv:"auto_pct"`
	TakeoverPct float64 `csv:"takeover_pct"`
	Takeovers   int     `csv:"takeovers"`
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_end", s.WindowEnd),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("residual_mean", s.ResidualMean),
		slog.Float64("auto_pct", s.AutoPct),
		slog.Int("takeovers", s.Takeovers),
	)
}

// Summary describes a sample distribution.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P90    float64
	P95    float64
	P99    float64
}

// Summarize computes moments and empirical quantiles. An empty input
// yields the zero Summary.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Summary{
		N:    n,
		Mean: stat.Mean(sorted, nil),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:  stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
	if n > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// SummarizeDurations summarizes durations in milliseconds.
func SummarizeDurations(ds []time.Duration) Summary {
	ms := make([]float64, len(ds))
	for i, d := range ds {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	return Summarize(ms)
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	round := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return slog.GroupValue(
		slog.Int("n", s.N),
		slog.Float64("mean", round(s.Mean)),
		slog.Float64("stddev", round(s.StdDev)),
		slog.Float64("p50", round(s.P50)),
		slog.Float64("p95", round(s.P95)),
		slog.Float64("p99", round(s.P99)),
		slog.Float64("max", round(s.Max)),
	)
}
