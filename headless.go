package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/host"
	"github.com/pthm-cable/ether/telemetry"
)

type headlessOpts struct {
	width, height int
	frames        int
	idle          bool
}

func (o *headlessOpts) bind(cmd *cobra.Command, frames int) {
	cmd.Flags().IntVar(&o.width, "width", 480, "surface width in pixels")
	cmd.Flags().IntVar(&o.height, "height", 270, "surface height in pixels")
	cmd.Flags().IntVar(&o.frames, "frames", frames, "number of steps to run")
	cmd.Flags().BoolVar(&o.idle, "idle", false, "leave the pointer to the idle driver instead of the scripted path")
}

// headless is a session on a fixed surface with a simulated clock that
// advances one display refresh per frame.
type headless struct {
	sess   *host.Session
	target *composite.ImageTarget
	now    time.Time
	step   time.Duration
	w, h   float64
	script bool
}

func newHeadless(cfg *config.Config, o headlessOpts, logger *slog.Logger) (*headless, error) {
	if o.width < 1 || o.height < 1 {
		return nil, fmt.Errorf("surface must be at least 1x1, got %dx%d", o.width, o.height)
	}
	hl := &headless{
		target: composite.NewImageTarget(cfg.Device.Workers),
		now:    time.Unix(0, 0),
		step:   cfg.Derived.FrameTime,
		w:      float64(o.width),
		h:      float64(o.height),
		script: !o.idle,
	}
	sess, err := host.New(host.Options{
		Config:    cfg,
		Surface:   host.FixedSurface(hl.w, hl.h, 1),
		Target:    hl.target,
		OutputDir: outputDir,
		Seed:      seed,
		LogStats:  logStats,
		Logger:    logger,
		Now:       func() time.Time { return hl.now },
	})
	if err != nil {
		return nil, err
	}
	hl.sess = sess
	sess.Start()
	return hl, nil
}

// advance moves the clock one refresh, feeds the scripted pointer and runs
// the frame.
func (hl *headless) advance() bool {
	hl.now = hl.now.Add(hl.step)
	if hl.script {
		x, y := scriptedPath(hl.now.Sub(time.Unix(0, 0)).Seconds(), hl.w, hl.h)
		hl.sess.Events().PointerMove(x, y)
	}
	return hl.sess.Frame(hl.now)
}

// scriptedPath is a Lissajous figure spanning the middle of the surface.
func scriptedPath(t, w, h float64) (float64, float64) {
	x := w * (0.5 + 0.35*math.Sin(1.3*t))
	y := h * (0.5 + 0.35*math.Sin(2.1*t+0.7))
	return x, y
}

func newRenderCmd() *cobra.Command {
	var (
		o     headlessOpts
		out   string
		every int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "run without a window and write frames as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			defer closer()
			if every < 1 {
				every = 1
			}
			if err := os.MkdirAll(out, 0755); err != nil {
				return fmt.Errorf("creating frame directory: %w", err)
			}

			hl, err := newHeadless(cfg, o, logger)
			if err != nil {
				return err
			}
			defer hl.sess.Close()

			written := 0
			for i := 0; i < o.frames; i++ {
				if !hl.advance() || (i+1)%every != 0 {
					continue
				}
				path := filepath.Join(out, fmt.Sprintf("frame_%05d.png", i+1))
				if err := writePNG(path, hl); err != nil {
					return err
				}
				written++
			}
			logger.Info("render complete",
				"frames", hl.sess.Engine().Frames(),
				"written", written,
				"dir", out)
			return nil
		},
	}
	o.bind(cmd, 120)
	cmd.Flags().StringVar(&out, "out", "frames", "directory for PNG frames")
	cmd.Flags().IntVar(&every, "every", 10, "write every Nth frame")
	return cmd
}

func writePNG(path string, hl *headless) error {
	img := hl.target.Image()
	if img == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func newBenchCmd() *cobra.Command {
	var o headlessOpts
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "time the solver and compositor without a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			defer closer()

			hl, err := newHeadless(cfg, o, logger)
			if err != nil {
				return err
			}
			defer hl.sess.Close()

			frameMs := make([]float64, 0, o.frames)
			residuals := make([]float64, 0, o.frames)
			for i := 0; i < o.frames; i++ {
				start := time.Now()
				if !hl.advance() {
					continue
				}
				frameMs = append(frameMs, float64(time.Since(start))/float64(time.Millisecond))
				residuals = append(residuals, fluid.Residual(hl.sess.Engine().Field()))
			}
			if err := hl.sess.Engine().Err(); err != nil {
				return err
			}

			printBench(cmd, hl, frameMs, residuals)
			return nil
		},
	}
	o.bind(cmd, 600)
	return cmd
}

func printBench(cmd *cobra.Command, hl *headless, frameMs, residuals []float64) {
	w := cmd.OutOrStdout()
	e := hl.sess.Engine()
	d := e.Grid().Dims()
	frame := telemetry.Summarize(frameMs)
	step := telemetry.SummarizeDurations(hl.sess.Perf().TickDurations())
	res := telemetry.Summarize(residuals)

	fmt.Fprintf(w, "ether bench: %d frames on %s, grid %dx%d, surface %.0fx%.0f\n\n",
		e.Frames(), e.Device().Name(), d.Width, d.Height, hl.w, hl.h)
	if len(frameMs) > 1 {
		fmt.Fprintln(w, asciigraph.Plot(downsample(frameMs, 80),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("frame time (ms)")))
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "frame  mean %.3fms  p50 %.3fms  p95 %.3fms  p99 %.3fms  max %.3fms\n",
		frame.Mean, frame.P50, frame.P95, frame.P99, frame.Max)
	fmt.Fprintf(w, "step   mean %.3fms  p50 %.3fms  p95 %.3fms  (last %d steps)\n",
		step.Mean, step.P50, step.P95, step.N)
	fmt.Fprintf(w, "residual  mean %.4g  max %.4g\n", res.Mean, res.Max)

	pct := hl.sess.Perf().Stats().PhasePct
	phases := make([]string, 0, len(pct))
	for p := range pct {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return pct[phases[i]] > pct[phases[j]] })
	for _, p := range phases {
		fmt.Fprintf(w, "  %-12s %5.1f%%\n", p, pct[p])
	}
	if dir := hl.sess.Output().Dir(); dir != "" {
		fmt.Fprintf(w, "\noutput written to %s\n", dir)
	}
}

// downsample averages values into at most n buckets.
func downsample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
