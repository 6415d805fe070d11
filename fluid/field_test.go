package fluid

import (
	"math"
	"testing"
)

func TestFieldSample(t *testing.T) {
	f := Field{Width: 2, Height: 1, Data: []float32{0, 0, 1, -1}}

	tests := []struct {
		u, v   float64
		vx, vy float64
	}{
		{0.25, 0.5, 0, 0},     // first texel center
		{0.75, 0.5, 1, -1},    // second texel center
		{0.5, 0.5, 0.5, -0.5}, // halfway
		{0, 0, 0, 0},          // clamped
		{1, 1, 1, -1},         // clamped
		{-3, 9, 0, 0},         // far outside
	}
	for _, tt := range tests {
		vx, vy := f.Sample(tt.u, tt.v)
		if math.Abs(vx-tt.vx) > 1e-9 || math.Abs(vy-tt.vy) > 1e-9 {
			t.Errorf("Sample(%v,%v): expected (%v,%v), got (%v,%v)", tt.u, tt.v, tt.vx, tt.vy, vx, vy)
		}
	}
}

func TestResidualOfUniformFieldIsZero(t *testing.T) {
	f := Field{Width: 4, Height: 4, Data: make([]float32, 32)}
	for i := 0; i < len(f.Data); i += 2 {
		f.Data[i], f.Data[i+1] = 0.4, 0.1
	}
	if r := Residual(&f); r != 0 {
		t.Errorf("expected zero residual, got %v", r)
	}
	if m := MaxSpeed(&f); math.Abs(m-math.Hypot(0.4, 0.1)) > 1e-6 {
		t.Errorf("unexpected max speed %v", m)
	}
}

func TestMaxSpeed(t *testing.T) {
	f := Field{Width: 3, Height: 1, Data: []float32{0.1, 0, -0.6, 0.8, 0, -0.5}}
	if m := MaxSpeed(&f); math.Abs(m-1) > 1e-6 {
		t.Errorf("expected 1, got %v", m)
	}
	if m := MaxSpeed(&Field{}); m != 0 {
		t.Errorf("empty field: expected 0, got %v", m)
	}
	if n := testing.AllocsPerRun(10, func() { MaxSpeed(&f) }); n != 0 {
		t.Errorf("MaxSpeed allocated %v times per call", n)
	}
}
