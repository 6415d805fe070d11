package fluid

import (
	"math"
	"testing"
)

// The kernel tests run on a 12x8 grid so the aspect ratio is not 1. Fields
// are linear in texel coordinates, which bilinear sampling reproduces
// exactly away from the edges.
const kw, kh = 12, 8

func shear(x, y float64) (float64, float64) {
	return 0.02*x + 0.05*y - 0.1, 0.04*x - 0.03*y + 0.05
}

func fillVec(t *testing.T, dev Device, f func(x, y float64) (float64, float64)) Buffer {
	t.Helper()
	b := mustAlloc(t, dev, kw, kh, 2)
	data := make([]float32, kw*kh*2)
	for y := 0; y < kh; y++ {
		for x := 0; x < kw; x++ {
			vx, vy := f(float64(x), float64(y))
			i := (y*kw + x) * 2
			data[i], data[i+1] = float32(vx), float32(vy)
		}
	}
	if err := dev.Upload(b, data); err != nil {
		t.Fatal(err)
	}
	return b
}

func fillScalar(t *testing.T, dev Device, f func(x, y float64) float64) Buffer {
	t.Helper()
	b := mustAlloc(t, dev, kw, kh, 1)
	data := make([]float32, kw*kh)
	for y := 0; y < kh; y++ {
		for x := 0; x < kw; x++ {
			data[y*kw+x] = float32(f(float64(x), float64(y)))
		}
	}
	if err := dev.Upload(b, data); err != nil {
		t.Fatal(err)
	}
	return b
}

type texelWant struct {
	x, y   int
	vx, vy float64
}

func checkTexels(t *testing.T, got []float32, comps int, want []texelWant, tol float64) {
	t.Helper()
	for _, w := range want {
		i := (w.y*kw + w.x) * comps
		if d := math.Abs(float64(got[i]) - w.vx); d > tol {
			t.Errorf("texel (%d,%d) x: expected %.6f, got %.6f", w.x, w.y, w.vx, got[i])
		}
		if comps == 2 {
			if d := math.Abs(float64(got[i+1]) - w.vy); d > tol {
				t.Errorf("texel (%d,%d) y: expected %.6f, got %.6f", w.x, w.y, w.vy, got[i+1])
			}
		}
	}
}

func TestKernelFormulas(t *testing.T) {
	dev := NewCPUDevice(1)
	defer dev.Close()

	px := Vec2{1.0 / kw, 1.0 / kh}
	ratio := vec2(ComputeDims(kw, kh, 1).Ratio())
	vel := fillVec(t, dev, shear)
	twice := fillVec(t, dev, func(x, y float64) (float64, float64) {
		vx, vy := shear(x, y)
		return 2 * vx, 2 * vy
	})
	pres := fillScalar(t, dev, func(x, y float64) float64 { return 0.01*x*x + 0.02*y*y + 0.1*x })
	div := fillScalar(t, dev, func(x, y float64) float64 { return 0.1*x - 0.05*y })
	vecOut := mustAlloc(t, dev, kw, kh, 2)
	scalarOut := mustAlloc(t, dev, kw, kh, 1)

	tests := []struct {
		name string
		u    Uniforms
		out  Buffer
		in   []Buffer
		want []texelWant
	}{
		{
			// v(x - v*dt*ratio), traced in texels: (5,4) moves by (0.6, 0.39).
			name: "advect",
			u:    AdvectUniforms{DT: 0.25, Ratio: ratio, Px: px},
			out:  vecOut,
			in:   []Buffer{vel},
			want: []texelWant{
				{5, 4, 0.168500, 0.117700},
				{8, 3, 0.155400, 0.280000},
				{3, 5, 0.194400, -0.003400},
			},
		},
		{
			name: "advect bfecc",
			u:    AdvectUniforms{DT: 0.25, BFECC: 1, Ratio: ratio, Px: px},
			out:  vecOut,
			in:   []Buffer{vel},
			want: []texelWant{
				{5, 4, 0.170055, 0.118933},
				{8, 3, 0.156448, 0.283374},
				{3, 5, 0.196507, -0.003794},
			},
		},
		{
			// (4*old + v*dt*sum(cur at +-2)) / (4*(1 + v*dt)) with cur = 2*old.
			name: "viscous",
			u:    ViscousUniforms{V: 30, DT: 0.014, Px: px},
			out:  vecOut,
			in:   []Buffer{vel, twice},
			want: []texelWant{
				{5, 4, 0.259155, 0.168451},
				{8, 3, 0.272113, 0.362817},
				{3, 5, 0.272113, 0.025915},
			},
		},
		{
			// Central differences over two texels, then divided by dt.
			name: "divergence",
			u:    DivergenceUniforms{DT: 0.1, Px: px},
			out:  scalarOut,
			in:   []Buffer{vel},
			want: []texelWant{{x: 5, y: 4, vx: -0.1}, {x: 8, y: 3, vx: -0.1}, {x: 3, y: 5, vx: -0.1}},
		},
		{
			// Mean of the pressures two texels away, minus divergence.
			name: "poisson",
			u:    PoissonUniforms{Px: px},
			out:  scalarOut,
			in:   []Buffer{pres, div},
			want: []texelWant{{x: 5, y: 4, vx: 0.83}, {x: 8, y: 3, vx: 1.03}, {x: 3, y: 5, vx: 0.9}},
		},
		{
			// v - 0.5*dt*(p[+1] - p[-1]) on each axis.
			name: "project",
			u:    ProjectUniforms{DT: 0.1, Px: px},
			out:  vecOut,
			in:   []Buffer{vel, pres},
			want: []texelWant{
				{5, 4, 0.18, 0.114},
				{8, 3, 0.184, 0.268},
				{3, 5, 0.194, 0},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := dev.Dispatch(tt.u, tt.out, tt.in...); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			checkTexels(t, download(t, dev, tt.out), tt.out.Components(), tt.want, 1e-5)
		})
	}
}

func TestBFECCCorrectsHalfError(t *testing.T) {
	dev := NewCPUDevice(1)
	defer dev.Close()
	vel := fillVec(t, dev, shear)
	plain := mustAlloc(t, dev, kw, kh, 2)
	corrected := mustAlloc(t, dev, kw, kh, 2)

	u := AdvectUniforms{DT: 0.25, Ratio: vec2(ComputeDims(kw, kh, 1).Ratio()), Px: Vec2{1.0 / kw, 1.0 / kh}}
	if err := dev.Dispatch(u, plain, vel); err != nil {
		t.Fatal(err)
	}
	u.BFECC = 1
	if err := dev.Dispatch(u, corrected, vel); err != nil {
		t.Fatal(err)
	}
	p := download(t, dev, plain)
	c := download(t, dev, corrected)

	// At (5,4) the round trip lands 0.0945 texels left and 0.0369 down, so
	// the corrected start moves half of that the other way.
	x, y := 5.0, 4.0
	startX, startY := x+0.0945/2, y+0.0369/2
	vx, vy := shear(startX, startY)
	wantX, wantY := shear(startX-vx*3, startY-vy*3)

	i := (4*kw + 5) * 2
	if math.Abs(float64(c[i])-wantX) > 1e-4 || math.Abs(float64(c[i+1])-wantY) > 1e-4 {
		t.Errorf("expected corrected (%.5f,%.5f), got (%.5f,%.5f)", wantX, wantY, c[i], c[i+1])
	}
	if d := math.Hypot(float64(c[i]-p[i]), float64(c[i+1]-p[i+1])); d < 1e-3 {
		t.Errorf("bfecc should differ from plain advection on a sheared field, delta %v", d)
	}
}

func TestBoundaryAdvectsRing(t *testing.T) {
	const a, b, c = 0.2, 0.05, 0.1
	// Velocity varies along x only, so clamped sampling reduces to
	// clamping the texel coordinate.
	vx := func(x float64) float64 { return a + b*math.Min(math.Max(x, 0), kw-1) }
	// Texels per unit velocity on each axis for dt 0.25 on a 12x8 grid.
	const s = 3.0

	// edge maps a ring column to the texel coordinate of its sample point.
	edge := func(x int) float64 {
		switch x {
		case 0:
			return -0.5
		case kw - 1:
			return kw - 0.5
		}
		return float64(x)
	}
	plain := func(x float64) float64 { return vx(x - vx(x)*s) }
	bfecc := func(x float64) float64 {
		old := x - vx(x)*s
		back := old + vx(old)*s
		start := x - (back-x)/2
		return vx(start - vx(start)*s)
	}

	dev := NewCPUDevice(2)
	defer dev.Close()
	vel := fillVec(t, dev, func(x, _ float64) (float64, float64) { return vx(x), c })
	out := mustAlloc(t, dev, kw, kh, 2)
	px := Vec2{1.0 / kw, 1.0 / kh}

	for _, mode := range []struct {
		name  string
		bfecc int32
		want  func(float64) float64
	}{
		{"plain", 0, plain},
		{"bfecc", 1, bfecc},
	} {
		t.Run(mode.name, func(t *testing.T) {
			sentinel := make([]float32, kw*kh*2)
			for i := range sentinel {
				sentinel[i] = 7
			}
			if err := dev.Upload(out, sentinel); err != nil {
				t.Fatal(err)
			}
			u := BoundaryUniforms{
				DT:            0.25,
				BFECC:         mode.bfecc,
				Ratio:         vec2(ComputeDims(kw, kh, 1).Ratio()),
				Px:            px,
				BoundarySpace: px,
			}
			if err := dev.Dispatch(u, out, vel); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			got := download(t, dev, out)

			for y := 0; y < kh; y++ {
				for x := 0; x < kw; x++ {
					i := (y*kw + x) * 2
					ring := x == 0 || y == 0 || x == kw-1 || y == kh-1
					if !ring {
						if got[i] != 7 || got[i+1] != 7 {
							t.Fatalf("interior texel (%d,%d) was written: (%v,%v)", x, y, got[i], got[i+1])
						}
						continue
					}
					want := mode.want(edge(x))
					if math.Abs(float64(got[i])-want) > 1e-5 || math.Abs(float64(got[i+1])-c) > 1e-5 {
						t.Errorf("ring texel (%d,%d): expected (%.5f,%v), got (%.5f,%.5f)", x, y, want, c, got[i], got[i+1])
					}
				}
			}
		})
	}

	// The left wall traces out of the domain and keeps the edge velocity
	// instead of a reflected one.
	got := download(t, dev, out)
	if got[(3*kw)*2] < 0 {
		t.Errorf("left wall velocity was negated: %v", got[(3*kw)*2])
	}
}
