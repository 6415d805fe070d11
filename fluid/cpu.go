package fluid

import (
	"errors"
	"fmt"
)

// cpuBuffer stores texels row-major, components interleaved.
type cpuBuffer struct {
	w, h, c  int
	data     []float32
	released bool
}

func (b *cpuBuffer) Width() int      { return b.w }
func (b *cpuBuffer) Height() int     { return b.h }
func (b *cpuBuffer) Components() int { return b.c }

// cpuKernel writes rows [y0, y1) of out.
type cpuKernel func(k *Kernel, u Uniforms, out *cpuBuffer, in []*cpuBuffer, y0, y1 int)

var cpuKernels = [numStages]cpuKernel{
	StageAdvect:     advectRows,
	StageBoundary:   boundaryRows,
	StageForce:      forceRows,
	StageViscous:    viscousRows,
	StageDivergence: divergenceRows,
	StagePoisson:    poissonRows,
	StageProject:    projectRows,
}

// CPUDevice runs kernels on the host, splitting each dispatch into row
// bands across a worker pool.
type CPUDevice struct {
	registry *Registry
	pool     *rowPool
	live     int
	closed   bool
}

// NewCPUDevice creates a CPU device. workers <= 0 uses GOMAXPROCS.
func NewCPUDevice(workers int) *CPUDevice {
	return &CPUDevice{
		registry: Kernels,
		pool:     newRowPool(workers),
	}
}

func (d *CPUDevice) Name() string { return "cpu" }

// Live returns the number of allocated, unreleased buffers.
func (d *CPUDevice) Live() int { return d.live }

func (d *CPUDevice) Alloc(w, h, components int) (Buffer, error) {
	if d.closed {
		return nil, errors.New("cpu device closed")
	}
	if err := checkSize(w, h, components); err != nil {
		return nil, err
	}
	d.live++
	return &cpuBuffer{w: w, h: h, c: components, data: make([]float32, w*h*components)}, nil
}

func (d *CPUDevice) Release(b Buffer) {
	cb, ok := b.(*cpuBuffer)
	if !ok || cb.released {
		return
	}
	cb.released = true
	cb.data = nil
	d.live--
}

func (d *CPUDevice) buffer(b Buffer) (*cpuBuffer, error) {
	cb, ok := b.(*cpuBuffer)
	if !ok {
		return nil, fmt.Errorf("buffer %T does not belong to the cpu device", b)
	}
	if cb.released {
		return nil, errors.New("buffer used after release")
	}
	return cb, nil
}

func (d *CPUDevice) Dispatch(u Uniforms, out Buffer, in ...Buffer) error {
	k, ok := d.registry.Lookup(u.Stage())
	if !ok {
		return fmt.Errorf("no kernel registered for stage %s", u.Stage())
	}
	if err := k.Validate(out, in); err != nil {
		return err
	}
	ob, err := d.buffer(out)
	if err != nil {
		return err
	}
	ins := make([]*cpuBuffer, len(in))
	for i, b := range in {
		if ins[i], err = d.buffer(b); err != nil {
			return err
		}
	}
	run := cpuKernels[k.ID]
	d.pool.rows(ob.h, func(y0, y1 int) {
		run(k, u, ob, ins, y0, y1)
	})
	return nil
}

func (d *CPUDevice) Upload(b Buffer, src []float32) error {
	cb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if len(src) != len(cb.data) {
		return fmt.Errorf("upload of %d values into buffer of %d", len(src), len(cb.data))
	}
	copy(cb.data, src)
	return nil
}

func (d *CPUDevice) Download(b Buffer, dst []float32) error {
	cb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if len(dst) != len(cb.data) {
		return fmt.Errorf("download of buffer of %d values into %d", len(cb.data), len(dst))
	}
	copy(dst, cb.data)
	return nil
}

// Close stops the worker pool. Buffers must not be used afterwards.
func (d *CPUDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.pool.stopWorkers()
	return nil
}
