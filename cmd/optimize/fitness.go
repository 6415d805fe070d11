package main

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/host"
	"github.com/pthm-cable/ether/telemetry"
)

// Surface used for every evaluation run, in pixels.
const (
	evalWidth  = 320
	evalHeight = 180
)

// Targets describes the look and cost a tuning should reach.
type Targets struct {
	SpeedP90 float64 // desired 90th percentile of per-frame peak speed
	BudgetMS float64 // mean step time above this is penalized
}

// Fitness weights.
const (
	weightSpeed    = 1.0
	weightResidual = 4.0
	weightCost     = 0.5
)

// FitnessEvaluator runs headless sessions and scores them.
type FitnessEvaluator struct {
	params     *ParamVector
	frames     int
	warmup     int
	seeds      []int64
	baseConfig *config.Config
	targets    Targets

	mu        sync.Mutex
	lastScore runScore // averaged over seeds, from the most recent Evaluate
}

// runScore is what one run measured.
type runScore struct {
	speed    telemetry.Summary
	residual telemetry.Summary
	stepMS   telemetry.Summary
	failed   bool
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		frames:     frames,
		warmup:     frames / 5,
		seeds:      seeds,
		baseConfig: baseCfg,
		targets:    targets,
	}
}

// LastScore returns the seed-averaged measurements of the latest Evaluate.
func (fe *FitnessEvaluator) LastScore() (speedP90, residual, stepMS float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore.speed.P90, fe.lastScore.residual.Mean, fe.lastScore.stepMS.Mean
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runScore, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.run(x, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runScore
	var total float64
	for _, r := range results {
		total += fe.computeFitness(r)
		avg.speed.P90 += r.speed.P90
		avg.residual.Mean += r.residual.Mean
		avg.stepMS.Mean += r.stepMS.Mean
	}
	n := float64(len(results))
	avg.speed.P90 /= n
	avg.residual.Mean /= n
	avg.stepMS.Mean /= n

	fe.mu.Lock()
	fe.lastScore = avg
	fe.mu.Unlock()
	return total / n
}

// run drives one session along a seeded pointer path on a simulated clock.
func (fe *FitnessEvaluator) run(x []float64, seed int64) runScore {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Device.Workers = 1 // seeds already run in parallel

	now := time.Unix(0, 0)
	sess, err := host.New(host.Options{
		Config:  cfg,
		Surface: host.FixedSurface(evalWidth, evalHeight, 1),
		Target:  composite.NewImageTarget(1),
		Seed:    seed,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return now },
	})
	if err != nil {
		return runScore{failed: true}
	}
	defer sess.Close()
	sess.Start()

	path := newPath(seed)
	var speeds, residuals []float64
	for i := 0; i < fe.frames; i++ {
		now = now.Add(cfg.Derived.FrameTime)
		px, py := path.at(now.Sub(time.Unix(0, 0)).Seconds())
		sess.Events().PointerMove(px*evalWidth, py*evalHeight)
		if !sess.Frame(now) {
			return runScore{failed: true}
		}
		if i < fe.warmup {
			continue
		}
		f := sess.Engine().Field()
		speeds = append(speeds, fluid.MaxSpeed(f))
		residuals = append(residuals, fluid.Residual(f))
	}
	if sess.Engine().Err() != nil {
		return runScore{failed: true}
	}
	return runScore{
		speed:    telemetry.Summarize(speeds),
		residual: telemetry.Summarize(residuals),
		stepMS:   telemetry.SummarizeDurations(sess.Perf().TickDurations()),
	}
}

// computeFitness scores a run: distance from the target speed, leftover
// divergence and time over budget. Failed or unstable runs score worst.
func (fe *FitnessEvaluator) computeFitness(r runScore) float64 {
	if r.failed || math.IsNaN(r.speed.P90) || math.IsInf(r.speed.P90, 0) {
		return 1e6
	}
	speedErr := (r.speed.P90 - fe.targets.SpeedP90) / fe.targets.SpeedP90
	fitness := weightSpeed * speedErr * speedErr
	fitness += weightResidual * r.residual.Mean
	if fe.targets.BudgetMS > 0 && r.stepMS.Mean > fe.targets.BudgetMS {
		fitness += weightCost * (r.stepMS.Mean - fe.targets.BudgetMS) / fe.targets.BudgetMS
	}
	return fitness
}

// copyConfig returns a copy of the base config safe to modify.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Palette.Colors = append([]string(nil), fe.baseConfig.Palette.Colors...)
	return &cfg
}

// pointerPath is a Lissajous figure in normalized surface coordinates with
// seeded frequencies and phase.
type pointerPath struct {
	fx, fy, phase float64
}

func newPath(seed int64) pointerPath {
	rng := rand.New(rand.NewSource(seed))
	return pointerPath{
		fx:    0.8 + rng.Float64(),
		fy:    1.2 + rng.Float64(),
		phase: rng.Float64() * 2 * math.Pi,
	}
}

func (p pointerPath) at(t float64) (float64, float64) {
	return 0.5 + 0.35*math.Sin(p.fx*t), 0.5 + 0.35*math.Sin(p.fy*t+p.phase)
}
