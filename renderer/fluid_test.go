package renderer

import (
	"errors"
	"testing"

	"github.com/pthm-cable/ether/ether"
)

func TestSurfaceErrorWrapsSentinel(t *testing.T) {
	err := surfaceError("composite shader failed to compile")
	if !errors.Is(err, ether.ErrSurfaceUnavailable) {
		t.Errorf("err = %v, want ErrSurfaceUnavailable", err)
	}
}

func TestPresentBeforeInitIsSurfaceError(t *testing.T) {
	var r FluidRenderer
	err := r.Present(nil, 16, 16)
	if !errors.Is(err, ether.ErrSurfaceUnavailable) {
		t.Errorf("err = %v, want ErrSurfaceUnavailable", err)
	}
}
