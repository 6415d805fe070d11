package ether

import "errors"

var (
	// ErrDeviceUnavailable is returned when no compute device or field
	// buffers could be acquired.
	ErrDeviceUnavailable = errors.New("ether: compute device unavailable")
	// ErrSurfaceUnavailable is returned when the mount surface or render
	// target is missing or unusable.
	ErrSurfaceUnavailable = errors.New("ether: render surface unavailable")
)
