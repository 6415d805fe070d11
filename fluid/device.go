package fluid

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoDevice is returned by OpenDevice when the requested backend cannot
// be brought up.
var ErrNoDevice = errors.New("fluid: no compute device")

// Buffer is a device-resident field of Width*Height texels with one or two
// float32 components per texel. Row 0 is the bottom of the domain.
type Buffer interface {
	Width() int
	Height() int
	Components() int
}

// Device runs registered kernels over buffers it allocated.
type Device interface {
	Name() string
	Alloc(w, h, components int) (Buffer, error)
	Release(b Buffer)
	// Dispatch runs the kernel registered for u.Stage() once over out.
	// It returns after every texel of out has been written.
	Dispatch(u Uniforms, out Buffer, in ...Buffer) error
	Upload(b Buffer, src []float32) error
	Download(b Buffer, dst []float32) error
	Close() error
}

// OpenDevice selects a compute backend by name: "cpu", "opencl" or "auto".
// "auto" tries OpenCL first and falls back to the CPU device.
func OpenDevice(name string, workers int, logger *slog.Logger) (Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch name {
	case "", "cpu":
		return NewCPUDevice(workers), nil
	case "opencl":
		dev, err := NewOpenCLDevice()
		if err != nil {
			return nil, fmt.Errorf("opening opencl device: %w", err)
		}
		return dev, nil
	case "auto":
		dev, err := NewOpenCLDevice()
		if err == nil {
			logger.Info("compute device selected", "device", dev.Name())
			return dev, nil
		}
		logger.Warn("opencl unavailable, using cpu", "error", err)
		return NewCPUDevice(workers), nil
	default:
		return nil, fmt.Errorf("%w: unknown device %q", ErrNoDevice, name)
	}
}

func checkSize(w, h, components int) error {
	if w < 1 || h < 1 {
		return fmt.Errorf("invalid buffer size %dx%d", w, h)
	}
	if components != 1 && components != 2 {
		return fmt.Errorf("invalid component count %d", components)
	}
	return nil
}
