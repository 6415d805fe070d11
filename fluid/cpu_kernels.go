package fluid

import "math"

// Sampling follows GPU texture rules: texel centers sit at (i+0.5)/size and
// lookups clamp to the edge.

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (b *cpuBuffer) at(x, y int) int {
	x = clampi(x, 0, b.w-1)
	y = clampi(y, 0, b.h-1)
	return (y*b.w + x) * b.c
}

func (b *cpuBuffer) fetch2(x, y int) (float32, float32) {
	i := b.at(x, y)
	return b.data[i], b.data[i+1]
}

func (b *cpuBuffer) fetch1(x, y int) float32 {
	return b.data[b.at(x, y)]
}

func (b *cpuBuffer) store2(x, y int, vx, vy float32) {
	i := (y*b.w + x) * 2
	b.data[i] = vx
	b.data[i+1] = vy
}

// sample2 bilinearly filters a two-component buffer at uv.
func (b *cpuBuffer) sample2(u, v float32) (float32, float32) {
	fx := u*float32(b.w) - 0.5
	fy := v*float32(b.h) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	ax, ay := b.fetch2(x0, y0)
	bx, by := b.fetch2(x0+1, y0)
	cx, cy := b.fetch2(x0, y0+1)
	dx, dy := b.fetch2(x0+1, y0+1)

	topX := ax + (bx-ax)*tx
	topY := ay + (by-ay)*tx
	botX := cx + (dx-cx)*tx
	botY := cy + (dy-cy)*tx
	return topX + (botX-topX)*ty, topY + (botY-topY)*ty
}

// coverage returns the texel rectangle [x0,x1)x[y0,y1) a face pass writes
// for the given boundary inset.
func coverage(bs Vec2, w, h int) (x0, x1, y0, y1 int) {
	nx := int(math.Round(float64(bs[0]) * float64(w)))
	ny := int(math.Round(float64(bs[1]) * float64(h)))
	return nx, w - nx, ny, h - ny
}

// facePass walks rows [ry0, ry1) of out. Covered texels are computed by fn;
// the rest copy the first input (vector outputs) or hold zero (scalars).
func facePass(k *Kernel, bs Vec2, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int, fn func(x, y int, u, v float32)) {
	x0, x1, y0, y1 := coverage(bs, out.w, out.h)
	w, h := float32(out.w), float32(out.h)
	for y := ry0; y < ry1; y++ {
		v := (float32(y) + 0.5) / h
		for x := 0; x < out.w; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				fn(x, y, (float32(x)+0.5)/w, v)
				continue
			}
			i := (y*out.w + x) * out.c
			if k.Scalar {
				out.data[i] = 0
				continue
			}
			src := in[0]
			out.data[i] = src.data[i]
			out.data[i+1] = src.data[i+1]
		}
	}
}

// advectAt traces the velocity v0 found at uv back through vel. With bfecc
// set it corrects the departure point by half the forward/backward error
// before resampling.
func advectAt(vel *cpuBuffer, u, v, vx, vy, rx, ry float32, bfecc bool) (float32, float32) {
	if !bfecc {
		return vel.sample2(u-vx*rx, v-vy*ry)
	}
	oldU, oldV := u-vx*rx, v-vy*ry
	n1x, n1y := vel.sample2(oldU, oldV)
	backU, backV := oldU+n1x*rx, oldV+n1y*ry
	errU, errV := backU-u, backV-v
	cu, cv := u-errU/2, v-errV/2
	v2x, v2y := vel.sample2(cu, cv)
	return vel.sample2(cu-v2x*rx, cv-v2y*ry)
}

func advectRows(k *Kernel, uu Uniforms, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int) {
	p := uu.(AdvectUniforms)
	vel := in[0]
	rx, ry := p.Ratio[0]*p.DT, p.Ratio[1]*p.DT

	facePass(k, p.BoundarySpace, out, in, ry0, ry1, func(x, y int, u, v float32) {
		vx, vy := vel.fetch2(x, y)
		nx, ny := advectAt(vel, u, v, vx, vy, rx, ry, p.BFECC != 0)
		out.store2(x, y, nx, ny)
	})
}

// edgeUV maps texel i of n to its sampling coordinate for the boundary
// pass: texels before lo sit on the 0 edge, texels from hi on the 1 edge,
// everything else on its center.
func edgeUV(i, n, lo, hi int) float32 {
	switch {
	case i < lo:
		return 0
	case i >= hi:
		return 1
	}
	return (float32(i) + 0.5) / float32(n)
}

// boundaryRows advects the texels outside the face pass coverage, sampling
// the velocity at the domain edge. Covered texels are left untouched.
func boundaryRows(_ *Kernel, uu Uniforms, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int) {
	p := AdvectUniforms(uu.(BoundaryUniforms))
	vel := in[0]
	rx, ry := p.Ratio[0]*p.DT, p.Ratio[1]*p.DT
	x0, x1, y0, y1 := coverage(p.BoundarySpace, out.w, out.h)

	for y := ry0; y < ry1; y++ {
		v := edgeUV(y, out.h, y0, y1)
		inside := y >= y0 && y < y1
		for x := 0; x < out.w; x++ {
			if inside && x >= x0 && x < x1 {
				continue
			}
			u := edgeUV(x, out.w, x0, x1)
			vx, vy := vel.sample2(u, v)
			nx, ny := advectAt(vel, u, v, vx, vy, rx, ry, p.BFECC != 0)
			out.store2(x, y, nx, ny)
		}
	}
}

func forceRows(_ *Kernel, uu Uniforms, out *cpuBuffer, _ []*cpuBuffer, ry0, ry1 int) {
	p := uu.(ForceUniforms)
	hx := p.Scale[0] * p.Px[0]
	hy := p.Scale[1] * p.Px[1]
	if hx <= 0 || hy <= 0 {
		return
	}
	w, h := float32(out.w), float32(out.h)
	for y := ry0; y < ry1; y++ {
		ly := (((float32(y)+0.5)/h)*2 - 1 - p.Center[1]) / hy
		if ly < -1 || ly > 1 {
			continue
		}
		for x := 0; x < out.w; x++ {
			lx := (((float32(x)+0.5)/w)*2 - 1 - p.Center[0]) / hx
			if lx < -1 || lx > 1 {
				continue
			}
			d := 1 - float32(math.Min(math.Sqrt(float64(lx*lx+ly*ly)), 1))
			d *= d
			i := (y*out.w + x) * 2
			out.data[i] += p.Force[0] * d
			out.data[i+1] += p.Force[1] * d
		}
	}
}

func viscousRows(k *Kernel, uu Uniforms, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int) {
	p := uu.(ViscousUniforms)
	old, cur := in[0], in[1]
	vdt := p.V * p.DT
	den := 4 * (1 + vdt)

	facePass(k, p.BoundarySpace, out, in, ry0, ry1, func(x, y int, _, _ float32) {
		ox, oy := old.fetch2(x, y)
		ax, ay := cur.fetch2(x+2, y)
		bx, by := cur.fetch2(x-2, y)
		cx, cy := cur.fetch2(x, y+2)
		dx, dy := cur.fetch2(x, y-2)
		out.store2(x, y,
			(4*ox+vdt*(ax+bx+cx+dx))/den,
			(4*oy+vdt*(ay+by+cy+dy))/den)
	})
}

func divergenceRows(k *Kernel, uu Uniforms, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int) {
	p := uu.(DivergenceUniforms)
	vel := in[0]

	facePass(k, p.BoundarySpace, out, in, ry0, ry1, func(x, y int, _, _ float32) {
		x0, _ := vel.fetch2(x-1, y)
		x1, _ := vel.fetch2(x+1, y)
		_, y0 := vel.fetch2(x, y-1)
		_, y1 := vel.fetch2(x, y+1)
		out.data[y*out.w+x] = (x1 - x0 + y1 - y0) / 2 / p.DT
	})
}

func poissonRows(k *Kernel, uu Uniforms, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int) {
	p := uu.(PoissonUniforms)
	pres, div := in[0], in[1]

	facePass(k, p.BoundarySpace, out, in, ry0, ry1, func(x, y int, _, _ float32) {
		p0 := pres.fetch1(x+2, y)
		p1 := pres.fetch1(x-2, y)
		p2 := pres.fetch1(x, y+2)
		p3 := pres.fetch1(x, y-2)
		out.data[y*out.w+x] = (p0+p1+p2+p3)/4 - div.fetch1(x, y)
	})
}

func projectRows(k *Kernel, uu Uniforms, out *cpuBuffer, in []*cpuBuffer, ry0, ry1 int) {
	p := uu.(ProjectUniforms)
	vel, pres := in[0], in[1]

	facePass(k, p.BoundarySpace, out, in, ry0, ry1, func(x, y int, _, _ float32) {
		p0 := pres.fetch1(x+1, y)
		p1 := pres.fetch1(x-1, y)
		p2 := pres.fetch1(x, y+1)
		p3 := pres.fetch1(x, y-1)
		vx, vy := vel.fetch2(x, y)
		out.store2(x, y, vx-(p0-p1)*0.5*p.DT, vy-(p2-p3)*0.5*p.DT)
	})
}
