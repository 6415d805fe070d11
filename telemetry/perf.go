package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/ether/fluid"
)

// Phase names for one frame step. Solver phases come from the fluid
// package; the composite phase covers readback and presentation.
const (
	PhaseAdvect     = fluid.PhaseAdvect
	PhaseForce      = fluid.PhaseForce
	PhaseViscous    = fluid.PhaseViscous
	PhaseDivergence = fluid.PhaseDivergence
	PhasePoisson    = fluid.PhasePoisson
	PhaseProject    = fluid.PhaseProject
	PhaseComposite  = "composite"
)

// Phases lists every phase in pipeline order.
var Phases = []string{
	PhaseAdvect, PhaseForce, PhaseViscous, PhaseDivergence,
	PhasePoisson, PhaseProject, PhaseComposite,
}

// PerfSample holds timing data for a single frame step.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks per-phase frame timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Host frame pacing, measured between RecordFrame calls.
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames
// (60 for one second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a frame step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase closes the running phase, if any, and opens the next one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick closes the frame step and stores its sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame marks a presented host frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// TickDurations returns the step durations in the window, oldest first.
func (p *PerfCollector) TickDurations() []time.Duration {
	out := make([]time.Duration, 0, p.sampleCount)
	start := 0
	if p.sampleCount == p.windowSize {
		start = p.writeIndex
	}
	for i := 0; i < p.sampleCount; i++ {
		out = append(out, p.samples[(start+i)%p.windowSize].TickDuration)
	}
	return out
}

// PerfStats holds aggregated timings.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of the frame step, per phase.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.TickDuration
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		if s.TickDuration > stats.MaxTickDuration {
			stats.MaxTickDuration = s.TickDuration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	stats.AvgTickDuration = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		stats.PhaseAvg[phase] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}
	return stats
}

// LogStats logs the aggregate at info level.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"avg_step_us", s.AvgTickDuration.Microseconds(),
		"min_step_us", s.MinTickDuration.Microseconds(),
		"max_step_us", s.MaxTickDuration.Microseconds(),
		"steps_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_step_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the flat perf.csv row.
type PerfStatsCSV struct {
	Frame         uint64  `csv:"frame"`
	AvgStepUS     int64   `csv:"avg_step_us"`
	MinStepUS     int64   `csv:"min_step_us"`
	MaxStepUS     int64   `csv:"max_step_us"`
	StepsPerSec   float64 `csv:"steps_per_sec"`
	FPS           float64 `csv:"fps"`
	AdvectPct     float64 `csv:"advect_pct"`
	ForcePct      float64 `csv:"force_pct"`
	ViscousPct    float64 `csv:"viscous_pct"`
	DivergencePct float64 `csv:"divergence_pct"`
	PoissonPct    float64 `csv:"poisson_pct"`
	ProjectPct    float64 `csv:"project_pct"`
	CompositePct  float64 `csv:"composite_pct"`
}

// ToCSV flattens the stats for export.
func (s PerfStats) ToCSV(frame uint64) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:         frame,
		AvgStepUS:     s.AvgTickDuration.Microseconds(),
		MinStepUS:     s.MinTickDuration.Microseconds(),
		MaxStepUS:     s.MaxTickDuration.Microseconds(),
		StepsPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		AdvectPct:     s.PhasePct[PhaseAdvect],
		ForcePct:      s.PhasePct[PhaseForce],
		ViscousPct:    s.PhasePct[PhaseViscous],
		DivergencePct: s.PhasePct[PhaseDivergence],
		PoissonPct:    s.PhasePct[PhasePoisson],
		ProjectPct:    s.PhasePct[PhaseProject],
		CompositePct:  s.PhasePct[PhaseComposite],
	}
}
