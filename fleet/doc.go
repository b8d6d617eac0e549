// Package fleet runs a workflow on several GB-LIVE32 controllers at once.
//
// Every target gets its own goroutine which opens the port, performs the
// handshake, checks the firmware version, unlocks the device if needed and
// then runs the Operation. Workers share nothing: each writes its Result to
// its own slot of the Report and uses its own copy of the ROM image. A
// failure on one device is recorded and never cancels the others.
//
//	runner := fleet.NewRunner(opener, fleet.WithLogger(golog.Default))
//	report := runner.Run(ctx, []string{"/dev/ttyACM0", "/dev/ttyACM1"},
//	    fleet.UploadOperation(image))
//	if err := report.Err(); err != nil {
//	    fmt.Println(err)
//	}
//	os.Exit(report.Failed())
package fleet
