// Tuner - interactive slider session for the fluid parameters.
//
// Opens the window with the tuning panel showing.
// Save writes the tuned values merged into the loaded config.
//
// Usage: go run ./cmd/tuner -config config.yaml -save tuned.yaml
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/host/rlhost"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	savePath := flag.String("save", "tuned.yaml", "Where Save writes the tuned config")
	backend := flag.String("backend", "", "Override the solver backend (cpu, opencl, auto)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Device.Backend = *backend
	}

	if err := rlhost.Run(rlhost.Options{
		Config:   cfg,
		Logger:   logger,
		Tuning:   true,
		SavePath: *savePath,
	}); err != nil {
		logger.Error("tuner failed", "error", err)
		os.Exit(1)
	}
}
