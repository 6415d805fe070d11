//go:build !opencl

package fluid

import "errors"

// NewOpenCLDevice reports that OpenCL support was not compiled in.
func NewOpenCLDevice() (Device, error) {
	return nil, errors.Join(ErrNoDevice, errors.New("OpenCL support is not enabled; rebuild with -tags opencl"))
}
