package host

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/telemetry"
)

// Options configures a session.
type Options struct {
	Config  *config.Config
	Surface ether.Surface
	Target  ether.Target

	OutputDir string // CSV, config and summary output; empty disables
	Seed      int64  // idle driver seed; 0 = time-based
	LogStats  bool   // log each telemetry window

	Logger *slog.Logger
	Now    func() time.Time // event timestamps; time.Now when nil
}

// Session is one mounted engine plus the device and telemetry around it.
// Front ends call Frame once per display refresh and Close on exit.
type Session struct {
	cfg    *config.Config
	engine *ether.Engine
	queue  *ether.FrameQueue
	events *Events
	device fluid.Device
	logger *slog.Logger

	perf     *telemetry.PerfCollector
	flow     *telemetry.Collector
	output   *telemetry.OutputManager
	logStats bool
	lastFlow telemetry.WindowStats
}

// New opens the configured device and builds the engine. The engine is
// not started.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("host: config required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range cfg.Derived.Warnings {
		logger.Warn("config normalized", "warning", w)
	}

	device, err := fluid.OpenDevice(cfg.Device.Backend, cfg.Device.Workers, logger)
	if err != nil {
		return nil, err
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		device.Close()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		cfg:      cfg,
		queue:    ether.NewFrameQueue(),
		events:   NewEvents(),
		device:   device,
		logger:   logger,
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		flow:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Fluid.DT),
		output:   output,
		logStats: opts.LogStats,
	}

	engine, err := ether.New(ether.Config{
		Surface:   opts.Surface,
		Target:    opts.Target,
		Scheduler: s.queue,
		Options:   cfg.EngineOptions(),
		Device:    device,
		Sources:   []ether.EventSource{s.events},
		Logger:    logger,
		Rand:      rand.New(rand.NewSource(seed)),
		Now:       opts.Now,
		Profiler:  s.perf,
	})
	if err != nil {
		output.Close()
		device.Close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	s.engine = engine

	logger.Info("session ready",
		"device", device.Name(),
		"seed", seed,
		"output_dir", output.Dir())
	return s, nil
}

func (s *Session) Engine() *ether.Engine { return s.engine }
func (s *Session) Events() *Events { return s.events }
func (s *Session) Config() *config.Config { return s.cfg }
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }
func (s *Session) Output() *telemetry.OutputManager { return s.output }
func (s *Session) LastWindow() telemetry.WindowStats { return s.lastFlow }

// Start begins the engine's frame loop.
func (s *Session) Start() { s.engine.Start() }

// Frame delivers one display refresh to the engine and records telemetry
// for the step it ran. It reports whether a step ran.
func (s *Session) Frame(now time.Time) bool {
	before := s.engine.Frames()
	s.queue.Flush(now)
	frame := s.engine.Frames()
	if frame == before {
		return false
	}

	s.perf.RecordFrame()
	s.flow.Record(s.engine.Field(), s.engine.Pointer().Mode())
	if s.flow.ShouldFlush(frame) {
		s.flushTelemetry(frame)
	}
	return true
}

// flushTelemetry closes the current stats window.
func (s *Session) flushTelemetry(frame uint64) {
	stats := s.flow.Flush(frame, s.engine.Grid().Dims())
	perfStats := s.perf.Stats()
	s.lastFlow = stats

	if s.logStats {
		s.logger.Info("telemetry", "window", stats)
		perfStats.LogStats(s.logger)
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, frame); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}
}

// Summary describes the run so far from the perf window.
func (s *Session) Summary() telemetry.RunSummary {
	d := s.engine.Grid().Dims()
	return telemetry.RunSummary{
		Frames:     s.engine.Frames(),
		Device:     s.device.Name(),
		GridWidth:  d.Width,
		GridHeight: d.Height,
		StepMS:     telemetry.SummarizeDurations(s.perf.TickDurations()),
		PhasePct:   s.perf.Stats().PhasePct,
	}
}

// SaveConfig writes the live engine options, merged into the loaded
// config, to path.
func (s *Session) SaveConfig(path string) error {
	s.cfg.SetEngineOptions(s.engine.Options())
	if err := s.cfg.WriteYAML(path); err != nil {
		return err
	}
	s.logger.Info("config saved", "path", path)
	return nil
}

// Close disposes the engine, writes the run summary and releases the
// device and output files.
func (s *Session) Close() error {
	if s.engine.State() == ether.Disposed {
		return nil
	}
	summary := s.Summary()
	s.engine.Dispose()

	var errs []error
	if err := s.output.WriteSummary(summary); err != nil {
		errs = append(errs, err)
	}
	if err := s.output.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing output: %w", err))
	}
	if err := s.device.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing device: %w", err))
	}
	s.logger.Info("session closed", "frames", summary.Frames)
	return errors.Join(errs...)
}
