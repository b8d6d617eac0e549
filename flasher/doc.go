// Package flasher provides the high-level GB-LIVE32 workflows built on a
// device session.
//
// # Overview
//
// Two workflows are provided:
//   - EnsureUnlocked: a destructive self-test that writes a random 32 KiB
//     image, reads it back, compares it and confirms the device unlocked
//   - Upload: holds the target in reset, detaches it from the bus, writes a
//     ROM image and boots it
//
// # Basic Usage
//
//	port, err := serialport.Open("/dev/ttyACM0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	sess, err := device.Open(port)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f := flasher.New(sess)
//	if err := f.EnsureUnlocked(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := f.Upload(ctx, image); err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
//	f := flasher.New(sess,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
//
// # Error Handling
//
// The package provides structured error types:
//   - SelfTestError: read-back differs from what was written (first index)
//   - UnlockError: device still locked after a passing self-test
//   - ImageSizeError: ROM image is not exactly 32768 bytes
//   - UnsupportedVersionError: firmware version not in the supported list
//
// Errors from the session (protocol.ProtocolError, device.IOError, ...) are
// wrapped with the step that failed and can be inspected with errors.As.
package flasher
