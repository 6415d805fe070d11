package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeConfig struct{ body string }

func (c fakeConfig) WriteYAML(path string) error {
	return os.WriteFile(path, []byte(c.body), 0644)
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Methods on a nil manager are no-ops.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEnd: uint64(i * 60), Frames: 60}); err != nil {
			t.Fatal(err)
		}
		if err := om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, uint64(i*60)); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteConfig(fakeConfig{body: "fluid: {}\n"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteSummary(RunSummary{Frames: 120, Device: "cpu"}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("header = %q", lines[0])
	}

	data, err = os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "avg_step_us"); n != 1 {
		t.Errorf("perf.csv header written %d times", n)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Error(err)
	}

	var sum RunSummary
	data, err = os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Frames != 120 || sum.Device != "cpu" {
		t.Errorf("summary = %+v", sum)
	}
}
