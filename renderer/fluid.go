// Package renderer draws the fluid with raylib.
package renderer

import (
	_ "embed"
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
)

//go:embed shaders/composite.fs
var compositeFS string

// FluidRenderer composites the velocity field on the GPU. It implements
// ether.Target and must be created after the raylib window.
type FluidRenderer struct {
	shader     rl.Shader
	paletteLoc int32
	bgLoc      int32

	velocity     rl.Texture2D
	velW, velH   int
	pixels       []color.RGBA
	lastW, lastH int

	paletteTex rl.Texture2D
	hasPalette bool
	bg         [4]float32

	// Destination rectangle origin, for hosts that draw into a sub-region.
	X, Y float32
	// Scale divides the presented size. Hosts running a pixel ratio above
	// 1 set it to that ratio so device pixels map back to screen units.
	Scale float32

	initialized bool
}

// NewFluidRenderer compiles the composite shader.
func NewFluidRenderer() (*FluidRenderer, error) {
	r := &FluidRenderer{}
	r.shader = rl.LoadShaderFromMemory("", compositeFS)
	if !rl.IsShaderValid(r.shader) {
		return nil, surfaceError("composite shader failed to compile")
	}
	r.paletteLoc = rl.GetShaderLocation(r.shader, "palette")
	r.bgLoc = rl.GetShaderLocation(r.shader, "bgColor")
	r.initialized = true
	return r, nil
}

// surfaceError reports a GPU target that cannot be drawn to. Callers match
// it with errors.Is(err, ether.ErrSurfaceUnavailable).
func surfaceError(reason string) error {
	return fmt.Errorf("renderer: %s: %w", reason, ether.ErrSurfaceUnavailable)
}

// SetPalette uploads the ramp as an Nx1 linearly filtered texture.
func (r *FluidRenderer) SetPalette(ramp palette.Ramp, bg palette.Background) {
	if r.hasPalette {
		rl.UnloadTexture(r.paletteTex)
	}
	px := ramp.Pixels()
	img := rl.GenImageColor(len(px), 1, rl.White)
	r.paletteTex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.UpdateTexture(r.paletteTex, px)
	rl.SetTextureFilter(r.paletteTex, rl.FilterBilinear)
	rl.SetTextureWrap(r.paletteTex, rl.WrapClamp)
	r.hasPalette = true

	r.bg = bg.Vec4()
	rl.SetShaderValue(r.shader, r.bgLoc, r.bg[:], rl.ShaderUniformVec4)
}

// ensureVelocity (re)creates the velocity texture when the grid size
// changes.
func (r *FluidRenderer) ensureVelocity(w, h int) {
	if r.velW == w && r.velH == h {
		return
	}
	if r.velW > 0 {
		rl.UnloadTexture(r.velocity)
	}
	img := rl.GenImageColor(w, h, composite.ZeroVelocity)
	r.velocity = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(r.velocity, rl.FilterBilinear)
	rl.SetTextureWrap(r.velocity, rl.WrapClamp)
	r.velW, r.velH = w, h
}

// Present draws the field at width x height pixels. It must be called
// between rl.BeginDrawing and rl.EndDrawing (or inside a texture mode).
func (r *FluidRenderer) Present(f *fluid.Field, width, height int) error {
	if !r.initialized {
		return surfaceError("not initialized")
	}
	if f.Width == 0 || f.Height == 0 {
		return nil
	}
	r.ensureVelocity(f.Width, f.Height)
	r.pixels = composite.EncodeVelocity(f, r.pixels)
	rl.UpdateTexture(r.velocity, r.pixels)
	r.lastW, r.lastH = width, height
	r.draw(width, height)
	return nil
}

// Redraw draws the last presented field again, for refreshes where the
// engine did not step (paused or hidden).
func (r *FluidRenderer) Redraw() {
	if !r.initialized || r.velW == 0 || r.lastW == 0 {
		return
	}
	r.draw(r.lastW, r.lastH)
}

func (r *FluidRenderer) draw(width, height int) {
	src := rl.Rectangle{Width: float32(r.velW), Height: float32(r.velH)}
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	dst := rl.Rectangle{X: r.X, Y: r.Y, Width: float32(width) / scale, Height: float32(height) / scale}

	rl.BeginShaderMode(r.shader)
	if r.hasPalette {
		rl.SetShaderValueTexture(r.shader, r.paletteLoc, r.paletteTex)
	}
	rl.DrawTexturePro(r.velocity, src, dst, rl.Vector2{}, 0, rl.White)
	rl.EndShaderMode()
}

// Release frees GPU resources. Safe to call more than once.
func (r *FluidRenderer) Release() error {
	if !r.initialized {
		return nil
	}
	if r.velW > 0 {
		rl.UnloadTexture(r.velocity)
		r.velW, r.velH = 0, 0
	}
	if r.hasPalette {
		rl.UnloadTexture(r.paletteTex)
		r.hasPalette = false
	}
	rl.UnloadShader(r.shader)
	r.initialized = false
	return nil
}
