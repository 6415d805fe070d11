//go:build opencl

package fluid

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jgillich/go-opencl/cl"
)

//go:embed kernels.cl
var kernelSource string

type clBuffer struct {
	w, h, c int
	mem     *cl.MemObject
}

func (b *clBuffer) Width() int      { return b.w }
func (b *clBuffer) Height() int     { return b.h }
func (b *clBuffer) Components() int { return b.c }

// OpenCLDevice runs the registered kernels on the first OpenCL GPU, or the
// first OpenCL CPU when no GPU is present.
type OpenCLDevice struct {
	registry *Registry
	context  *cl.Context
	queue    *cl.CommandQueue
	program  *cl.Program
	kernels  [numStages]*cl.Kernel
	name     string
}

// NewOpenCLDevice compiles every registered kernel for the selected device.
func NewOpenCLDevice() (Device, error) {
	device, err := pickDevice()
	if err != nil {
		return nil, errors.Join(ErrNoDevice, err)
	}

	d := &OpenCLDevice{registry: Kernels, name: "opencl:" + device.Name()}
	if d.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if d.queue, err = d.context.CreateCommandQueue(device, 0); err != nil {
		d.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if d.program, err = d.context.CreateProgramWithSource([]string{kernelSource}); err != nil {
		d.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := d.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		d.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	for _, k := range d.registry.Kernels() {
		kern, err := d.program.CreateKernel(k.Entry)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("creating kernel %s: %w", k.Entry, err)
		}
		d.kernels[k.ID] = kern
	}
	return d, nil
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, errors.New("no suitable OpenCL devices found")
}

func (d *OpenCLDevice) Name() string { return d.name }

func (d *OpenCLDevice) Alloc(w, h, components int) (Buffer, error) {
	if err := checkSize(w, h, components); err != nil {
		return nil, err
	}
	n := w * h * components
	mem, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, n*4)
	if err != nil {
		return nil, fmt.Errorf("allocating %dx%dx%d buffer: %w", w, h, components, err)
	}
	b := &clBuffer{w: w, h: h, c: components, mem: mem}
	if err := d.Upload(b, make([]float32, n)); err != nil {
		mem.Release()
		return nil, err
	}
	return b, nil
}

func (d *OpenCLDevice) Release(b Buffer) {
	cb, ok := b.(*clBuffer)
	if !ok || cb.mem == nil {
		return
	}
	cb.mem.Release()
	cb.mem = nil
}

func (d *OpenCLDevice) buffer(b Buffer) (*clBuffer, error) {
	cb, ok := b.(*clBuffer)
	if !ok {
		return nil, fmt.Errorf("buffer %T does not belong to the opencl device", b)
	}
	if cb.mem == nil {
		return nil, errors.New("buffer used after release")
	}
	return cb, nil
}

func (d *OpenCLDevice) Dispatch(u Uniforms, out Buffer, in ...Buffer) error {
	k, ok := d.registry.Lookup(u.Stage())
	if !ok || d.kernels[k.ID] == nil {
		return fmt.Errorf("no kernel registered for stage %s", u.Stage())
	}
	if err := k.Validate(out, in); err != nil {
		return err
	}
	ob, err := d.buffer(out)
	if err != nil {
		return err
	}
	uniforms, err := k.Args(u)
	if err != nil {
		return err
	}

	args := make([]any, 0, 2+len(uniforms)+len(in)+1)
	args = append(args, int32(ob.w), int32(ob.h))
	args = append(args, uniforms...)
	if !k.InPlace {
		for _, b := range in {
			cb, err := d.buffer(b)
			if err != nil {
				return err
			}
			args = append(args, cb.mem)
		}
	}
	args = append(args, ob.mem)

	kern := d.kernels[k.ID]
	if err := kern.SetArgs(args...); err != nil {
		return fmt.Errorf("setting %s arguments: %w", k.ID, err)
	}
	if _, err := d.queue.EnqueueNDRangeKernel(kern, nil, []int{ob.w, ob.h}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing %s: %w", k.ID, err)
	}
	return d.queue.Finish()
}

func (d *OpenCLDevice) Upload(b Buffer, src []float32) error {
	cb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if len(src) != cb.w*cb.h*cb.c {
		return fmt.Errorf("upload of %d values into buffer of %d", len(src), cb.w*cb.h*cb.c)
	}
	if _, err := d.queue.EnqueueWriteBufferFloat32(cb.mem, true, 0, src, nil); err != nil {
		return fmt.Errorf("writing buffer: %w", err)
	}
	return nil
}

func (d *OpenCLDevice) Download(b Buffer, dst []float32) error {
	cb, err := d.buffer(b)
	if err != nil {
		return err
	}
	if len(dst) != cb.w*cb.h*cb.c {
		return fmt.Errorf("download of buffer of %d values into %d", cb.w*cb.h*cb.c, len(dst))
	}
	if _, err := d.queue.EnqueueReadBufferFloat32(cb.mem, true, 0, dst, nil); err != nil {
		return fmt.Errorf("reading buffer: %w", err)
	}
	return nil
}

func (d *OpenCLDevice) Close() error {
	for i, k := range d.kernels {
		if k != nil {
			k.Release()
			d.kernels[i] = nil
		}
	}
	if d.program != nil {
		d.program.Release()
		d.program = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.context != nil {
		d.context.Release()
		d.context = nil
	}
	return nil
}
