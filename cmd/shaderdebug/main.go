// Shader debug tool - composites a synthetic vortex field with the GPU
// shader and writes it to a PNG, optionally next to the CPU compositor's
// rendering of the same field for comparison.
//
// Usage: go run ./cmd/shaderdebug -out gpu.png -cpu cpu.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
	"github.com/pthm-cable/ether/renderer"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outPath := flag.String("out", "debug.png", "Output PNG path for the shader")
	cpuPath := flag.String("cpu", "", "Also write the CPU compositor's output here")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	gridW := flag.Int("grid-width", 64, "Synthetic field width in cells")
	gridH := flag.Int("grid-height", 64, "Synthetic field height in cells")
	peak := flag.Float64("peak", 1.2, "Peak speed of the vortex")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ramp, err := palette.Parse(cfg.Palette.Colors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid palette: %v\n", err)
		os.Exit(1)
	}
	bg := cfg.Derived.Background
	field := vortex(*gridW, *gridH, *peak)

	if *cpuPath != "" {
		if err := writeCPU(*cpuPath, field, ramp, bg, *width, *height); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write CPU image: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("CPU composite written to: %s\n", *cpuPath)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	fr, err := renderer.NewFluidRenderer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer fr.Release()
	fr.SetPalette(ramp, bg)

	target := rl.LoadRenderTexture(int32(*width), int32(*height))
	defer rl.UnloadRenderTexture(target)

	// Transparent clear so the exported alpha is the shader's alpha.
	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Blank)
	if err := fr.Present(field, *width, *height); err != nil {
		rl.EndTextureMode()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if success {
		fmt.Printf("Shader rendered to: %s (%dx%d from a %dx%d field)\n", *outPath, *width, *height, *gridW, *gridH)
	} else {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
}

// vortex is a single Rankine-style swirl centered in the grid, reaching
// peak speed at a quarter of the shorter side.
func vortex(w, h int, peak float64) *fluid.Field {
	f := &fluid.Field{Width: w, Height: h, Data: make([]float32, w*h*2)}
	cx, cy := float64(w)/2, float64(h)/2
	core := math.Min(float64(w), float64(h)) / 4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			r := math.Hypot(dx, dy)
			if r == 0 {
				continue
			}
			speed := peak * r / core
			if r > core {
				speed = peak * core / r
			}
			i := (y*w + x) * 2
			f.Data[i] = float32(-dy / r * speed)
			f.Data[i+1] = float32(dx / r * speed)
		}
	}
	return f
}

func writeCPU(path string, f *fluid.Field, ramp palette.Ramp, bg palette.Background, w, h int) error {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	composite.New(ramp, bg, 0).Render(f, img)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
