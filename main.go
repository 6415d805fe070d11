package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/host/ebitenhost"
	"github.com/pthm-cable/ether/host/rlhost"
	"github.com/pthm-cable/ether/host/tuihost"
)

var (
	configPath string
	logFormat  string
	logLevel   string
	logFile    string
	outputDir  string
	seed       int64
	logStats   bool

	maxFrames uint64
	tuning    bool
	savePath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ether",
		Short:        "liquid ether fluid background",
		SilenceUsage: true,
		RunE:         runWindow,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to config.yaml (empty = use defaults)")
	pf.StringVar(&logFormat, "log-format", "json", "log format: json or text")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&logFile, "log-file", "", "write logs to a file instead of stdout")
	pf.StringVar(&outputDir, "output-dir", "", "directory for CSV logs, config snapshot and run summary")
	pf.Int64Var(&seed, "seed", 0, "idle driver seed (0 = time-based)")
	pf.BoolVar(&logStats, "log-stats", false, "log each telemetry window")

	rootCmd.Flags().BoolVar(&tuning, "tune", false, "open the tuning panel on start")
	rootCmd.Flags().Uint64Var(&maxFrames, "max-frames", 0, "stop after N steps (0 = unlimited)")
	rootCmd.Flags().StringVar(&savePath, "save", "", "where the tuning panel saves (default <output-dir>/tuned.yaml)")

	windowCmd := &cobra.Command{
		Use:   "window",
		Short: "run in a raylib window with the GPU compositor",
		RunE:  runWindow,
	}
	windowCmd.Flags().BoolVar(&tuning, "tune", false, "open the tuning panel on start")
	windowCmd.Flags().Uint64Var(&maxFrames, "max-frames", 0, "stop after N steps (0 = unlimited)")
	windowCmd.Flags().StringVar(&savePath, "save", "", "where the tuning panel saves (default <output-dir>/tuned.yaml)")

	ebitenCmd := &cobra.Command{
		Use:   "ebiten",
		Short: "run in an ebiten window with the CPU compositor",
		RunE:  runEbiten,
	}
	ebitenCmd.Flags().Uint64Var(&maxFrames, "max-frames", 0, "stop after N steps (0 = unlimited)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "run in the terminal",
		RunE:  runTUI,
	}
	tuiCmd.Flags().Uint64Var(&maxFrames, "max-frames", 0, "stop after N steps (0 = unlimited)")

	rootCmd.AddCommand(windowCmd, ebitenCmd, tuiCmd, newRenderCmd(), newBenchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config and installs the default logger. The returned
// closer releases the log file, if any.
func setup(logOut io.Writer) (*config.Config, *slog.Logger, func(), error) {
	closer := func() {}
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logOut = f
		closer = func() { f.Close() }
	}

	logger, err := newLogger(logOut, logFormat, logLevel)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		closer()
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logger, closer, nil
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or text)", format)
	}
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(os.Stdout)
	if err != nil {
		return err
	}
	defer closer()

	return rlhost.Run(rlhost.Options{
		Config:    cfg,
		OutputDir: outputDir,
		Seed:      seed,
		LogStats:  logStats,
		Logger:    logger,
		Tuning:    tuning,
		MaxFrames: maxFrames,
		SavePath:  savePath,
	})
}

func runEbiten(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(os.Stdout)
	if err != nil {
		return err
	}
	defer closer()

	return ebitenhost.Run(ebitenhost.Options{
		Config:    cfg,
		OutputDir: outputDir,
		Seed:      seed,
		LogStats:  logStats,
		Logger:    logger,
		MaxFrames: maxFrames,
	})
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The terminal belongs to bubbletea; logs go to --log-file or nowhere.
	cfg, logger, closer, err := setup(io.Discard)
	if err != nil {
		return err
	}
	defer closer()

	return tuihost.Run(tuihost.Options{
		Config:    cfg,
		OutputDir: outputDir,
		Seed:      seed,
		LogStats:  logStats,
		Logger:    logger,
		MaxFrames: maxFrames,
	})
}
