package flasher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-gblive32/protocol"
)

// Device is the subset of *device.Session the workflows need.
type Device interface {
	GetVersion() (protocol.Version, error)
	GetStatus() (protocol.Status, error)
	SetUnlocked(v bool) error
	SetPassthrough(v bool) error
	SetReset(v bool) error
	WriteAll(image []byte) error
	ReadAll() ([]byte, error)
}

// Flasher runs the unlock self-test and ROM upload workflows on one
// controller.
//
// A Flasher is not safe for concurrent use; it drives a single Session.
type Flasher struct {
	dev    Device
	config Config
}

// New creates a new Flasher for the given session and options.
//
// Example:
//
//	sess, _ := device.Open(port)
//	f := flasher.New(sess, flasher.WithLogger(golog.Default))
func New(dev Device, opts ...Option) *Flasher {
	if dev == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Flasher{
		dev:    dev,
		config: cfg,
	}
}

// CheckVersion reads the firmware version and fails with
// *UnsupportedVersionError unless it is in the supported list.
func (f *Flasher) CheckVersion(ctx context.Context) (protocol.Version, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Version{}, fmt.Errorf("cancelled: %w", err)
	}

	v, err := f.dev.GetVersion()
	if err != nil {
		return protocol.Version{}, fmt.Errorf("get version: %w", err)
	}
	if len(f.config.SupportedVersions) == 0 {
		return v, nil
	}
	for _, supported := range f.config.SupportedVersions {
		if v == supported {
			return v, nil
		}
	}
	return v, &UnsupportedVersionError{Version: v}
}

// Status returns the controller state flags.
func (f *Flasher) Status(ctx context.Context) (protocol.Status, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Status{}, fmt.Errorf("cancelled: %w", err)
	}
	st, err := f.dev.GetStatus()
	if err != nil {
		return protocol.Status{}, fmt.Errorf("get status: %w", err)
	}
	return st, nil
}

// EnsureUnlocked unlocks the device if it is locked. Unlocking is a
// destructive self-test:
//  1. Disable passthrough so the target bus is isolated
//  2. Enable writes
//  3. Bulk-write a random image and bulk-read it back
//  4. Compare byte for byte; the first mismatch is a *SelfTestError
//  5. Confirm the device now reports unlocked, else *UnlockError
//
// It is a no-op when the device already reports unlocked.
func (f *Flasher) EnsureUnlocked(ctx context.Context) error {
	st, err := f.Status(ctx)
	if err != nil {
		return err
	}
	if st.Unlocked {
		return nil
	}

	startTime := time.Now()
	f.logInfo("Unlocking...")
	f.reportProgress(Progress{
		Phase:      PhaseUnlocking,
		TotalBytes: protocol.ImageSize,
	})

	if err := f.dev.SetPassthrough(false); err != nil {
		return fmt.Errorf("disable passthrough: %w", err)
	}
	if err := f.dev.SetUnlocked(true); err != nil {
		return fmt.Errorf("set unlocked: %w", err)
	}

	pattern := make([]byte, protocol.ImageSize)
	if _, err := io.ReadFull(f.config.Entropy, pattern); err != nil {
		return fmt.Errorf("generate self-test pattern: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	f.reportProgress(Progress{
		Phase:       PhaseSelfTest,
		TotalBytes:  protocol.ImageSize,
		Percentage:  10,
		ElapsedTime: time.Since(startTime),
	})

	if err := f.dev.WriteAll(pattern); err != nil {
		return fmt.Errorf("self-test write: %w", err)
	}

	f.reportProgress(Progress{
		Phase:        PhaseSelfTest,
		BytesWritten: protocol.ImageSize,
		TotalBytes:   protocol.ImageSize,
		Percentage:   50,
		ElapsedTime:  time.Since(startTime),
	})

	readBack, err := f.dev.ReadAll()
	if err != nil {
		return fmt.Errorf("self-test read: %w", err)
	}
	if err := compareImages(pattern, readBack); err != nil {
		return err
	}

	st, err = f.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Unlocked {
		return &UnlockError{}
	}

	f.reportProgress(Progress{
		Phase:        PhaseComplete,
		BytesWritten: protocol.ImageSize,
		TotalBytes:   protocol.ImageSize,
		Percentage:   100,
		ElapsedTime:  time.Since(startTime),
	})
	f.logInfo("Unlocked device after self-test")
	return nil
}

// compareImages returns a *SelfTestError for the first differing byte.
func compareImages(wrote, read []byte) error {
	n := len(wrote)
	if len(read) < n {
		n = len(read)
	}
	for i := 0; i < n; i++ {
		if wrote[i] != read[i] {
			return &SelfTestError{Index: i, Wrote: wrote[i], Read: read[i]}
		}
	}
	if len(wrote) != len(read) {
		return &SelfTestError{Index: n}
	}
	return nil
}

// Upload writes a ROM image and boots the target system:
//  1. Assert reset so the target stays inert
//  2. Disable passthrough so the target is off the shared bus
//  3. Bulk-write the image
//  4. Re-enable passthrough
//  5. Release reset
//
// The image must be exactly protocol.ImageSize bytes; otherwise an
// *ImageSizeError is returned before any command is sent. The device must
// already be unlocked (see EnsureUnlocked).
func (f *Flasher) Upload(ctx context.Context, image []byte) error {
	if len(image) != protocol.ImageSize {
		return &ImageSizeError{Size: len(image)}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	startTime := time.Now()
	f.reportProgress(Progress{
		Phase:      PhaseWriting,
		TotalBytes: protocol.ImageSize,
	})

	if err := f.dev.SetReset(true); err != nil {
		return fmt.Errorf("assert reset: %w", err)
	}
	if err := f.dev.SetPassthrough(false); err != nil {
		return fmt.Errorf("disable passthrough: %w", err)
	}
	if err := f.dev.WriteAll(image); err != nil {
		return fmt.Errorf("write ROM: %w", err)
	}

	f.reportProgress(Progress{
		Phase:        PhaseBooting,
		BytesWritten: protocol.ImageSize,
		TotalBytes:   protocol.ImageSize,
		Percentage:   90,
		ElapsedTime:  time.Since(startTime),
	})

	if err := f.dev.SetPassthrough(true); err != nil {
		return fmt.Errorf("enable passthrough: %w", err)
	}
	if err := f.dev.SetReset(false); err != nil {
		return fmt.Errorf("release reset: %w", err)
	}

	f.reportProgress(Progress{
		Phase:        PhaseComplete,
		BytesWritten: protocol.ImageSize,
		TotalBytes:   protocol.ImageSize,
		Percentage:   100,
		ElapsedTime:  time.Since(startTime),
	})
	f.logInfo("Wrote ROM and reset the system (%s)", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// reportProgress calls the progress callback if configured.
func (f *Flasher) reportProgress(progress Progress) {
	if f.config.ProgressCallback != nil {
		f.config.ProgressCallback(progress)
	}
}

// logInfo logs an info message if a logger is configured.
func (f *Flasher) logInfo(format string, args ...interface{}) {
	if f.config.Logger != nil {
		if f.config.Name != "" {
			format = f.config.Name + ": " + format
		}
		f.config.Logger.Infof(format, args...)
	}
}
