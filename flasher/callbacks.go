package flasher

import (
	"time"

	"github.com/moffa90/go-gblive32/device"
)

// Phase names reported through ProgressCallback.
const (
	PhaseUnlocking = "unlocking"
	PhaseSelfTest  = "self-test"
	PhaseWriting   = "writing"
	PhaseBooting   = "booting"
	PhaseComplete  = "complete"
)

// Progress contains information about the workflow progress.
// Passed to ProgressCallback during EnsureUnlocked and Upload.
type Progress struct {
	// Phase describes the current operation phase:
	//   "unlocking" - Isolating the bus and enabling writes
	//   "self-test" - Writing and reading back a random image
	//   "writing"   - Holding the target in reset and writing the ROM
	//   "booting"   - Reattaching the bus and releasing reset
	//   "complete"  - Operation completed successfully
	Phase string

	// BytesWritten is the number of image bytes transferred so far
	BytesWritten int

	// TotalBytes is the image size
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called at each phase boundary.
// Implementations should return quickly to avoid holding up the device.
//
// Example:
//
//	f := flasher.New(sess,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is the logging interface used by the flasher. It is the same
// interface as device.Logger, so one *golog.Logger serves both.
type Logger = device.Logger
