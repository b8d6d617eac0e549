package fleet

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDevices is returned by SelectTargets when nothing was discovered
	// and no port was named.
	ErrNoDevices = errors.New("no devices found")

	// ErrAmbiguousTargets is returned by SelectTargets when several devices
	// were discovered but neither a port nor broadcast mode was given.
	ErrAmbiguousTargets = errors.New("multiple devices found; specify a port or use broadcast mode")
)

// DeviceError attaches the device name to a worker's failure.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
