package composite

import (
	"image"
	"image/color"
	"math"

	"github.com/pthm-cable/ether/fluid"
)

// velocityZero is the 16-bit code of a zero velocity component.
const velocityZero = 32767

// EncodeVelocity packs a field into RGBA8 texels for GPU upload, 16 bits
// per component: vx in R (high byte) and G (low byte), vy in B and A. Each
// component is clamped to [-1,1] and stored as round(v*32767)+32767, so
// zero is exact and the step is about 3e-5. Bilinear filtering is linear,
// so filtered high and low bytes still recombine to the filtered value.
// Clamping per component never changes clamp(|v|,0,1). Rows are flipped so
// dst row 0 is the top of the image.
func EncodeVelocity(f *fluid.Field, dst []color.RGBA) []color.RGBA {
	n := f.Width * f.Height
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]
	for y := 0; y < f.Height; y++ {
		row := (f.Height - 1 - y) * f.Width
		src := y * f.Width * 2
		for x := 0; x < f.Width; x++ {
			qx := encodeComponent(f.Data[src+2*x])
			qy := encodeComponent(f.Data[src+2*x+1])
			dst[row+x] = color.RGBA{R: uint8(qx >> 8), G: uint8(qx), B: uint8(qy >> 8), A: uint8(qy)}
		}
	}
	return dst
}

// ZeroVelocity is the texel EncodeVelocity writes for a field at rest.
var ZeroVelocity = color.RGBA{R: velocityZero >> 8, G: velocityZero & 0xff, B: velocityZero >> 8, A: velocityZero & 0xff}

// DecodeVelocity is the inverse of one EncodeVelocity texel.
func DecodeVelocity(c color.RGBA) (float64, float64) {
	qx := int(c.R)<<8 | int(c.G)
	qy := int(c.B)<<8 | int(c.A)
	return float64(qx-velocityZero) / velocityZero, float64(qy-velocityZero) / velocityZero
}

func encodeComponent(v float32) uint16 {
	c := math.Max(-1, math.Min(1, float64(v)))
	return uint16(math.Round(c*velocityZero) + velocityZero)
}

// Premultiply converts src into premultiplied RGBA bytes, reusing dst when
// it is large enough. GPU upload paths that expect premultiplied alpha
// take the result directly.
func Premultiply(src *image.NRGBA, dst []byte) []byte {
	b := src.Bounds()
	n := b.Dx() * b.Dy() * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := src.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			a := uint32(src.Pix[off+3])
			dst[i+0] = uint8((uint32(src.Pix[off+0])*a + 127) / 255)
			dst[i+1] = uint8((uint32(src.Pix[off+1])*a + 127) / 255)
			dst[i+2] = uint8((uint32(src.Pix[off+2])*a + 127) / 255)
			dst[i+3] = uint8(a)
			off += 4
			i += 4
		}
	}
	return dst
}
