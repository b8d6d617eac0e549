package flasher

import (
	"fmt"

	"github.com/moffa90/go-gblive32/protocol"
)

// SelfTestError indicates that the image read back during the unlock
// self-test differs from the one written. Only the first differing offset
// is reported.
type SelfTestError struct {
	Index int
	Wrote byte
	Read  byte
}

func (e *SelfTestError) Error() string {
	return fmt.Sprintf("self-test failed at index %d: wrote 0x%02X, read 0x%02X", e.Index, e.Wrote, e.Read)
}

// UnlockError indicates that the device still reports locked after a
// passing self-test.
type UnlockError struct{}

func (e *UnlockError) Error() string {
	return "failed to unlock device"
}

// ImageSizeError indicates a ROM image that is not exactly
// protocol.ImageSize bytes.
type ImageSizeError struct {
	Size int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("ROM image must be exactly %d bytes, got %d", protocol.ImageSize, e.Size)
}

// UnsupportedVersionError indicates firmware this tool does not speak to.
type UnsupportedVersionError struct {
	Version protocol.Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported firmware version %s", e.Version)
}
