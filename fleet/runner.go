package fleet

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-gblive32/device"
	"github.com/moffa90/go-gblive32/flasher"
)

// Port is an open connection to one device. *serialport.Port and
// *simulator.Device satisfy it.
type Port interface {
	device.Conn
	io.Closer
}

// Opener opens a device by name.
type Opener interface {
	Open(ctx context.Context, name string) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, name string) (Port, error)

// Open calls f(ctx, name).
func (f OpenerFunc) Open(ctx context.Context, name string) (Port, error) {
	return f(ctx, name)
}

// Runner executes an Operation on many devices at once.
type Runner struct {
	opener Opener
	config Config
}

// NewRunner creates a Runner that opens devices with opener.
func NewRunner(opener Opener, opts ...Option) *Runner {
	if opener == nil {
		panic("opener cannot be nil")
	}
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{opener: opener, config: cfg}
}

// Run executes op on every target concurrently, one goroutine per device,
// and waits for all of them. A failing device never stops the others;
// results are reported in target order.
func (r *Runner) Run(ctx context.Context, targets []string, op Operation) *Report {
	report := &Report{
		Operation: op,
		Results:   make([]Result, len(targets)),
	}

	var wg sync.WaitGroup
	for i, name := range targets {
		wg.Add(1)
		go func(i int, name string, op Operation) {
			defer wg.Done()
			report.Results[i] = r.runOne(ctx, name, op)
		}(i, name, op.clone())
	}
	wg.Wait()

	return report
}

// runOne drives a single device from open to close.
func (r *Runner) runOne(ctx context.Context, name string, op Operation) Result {
	start := time.Now()
	res := Result{Device: name}
	res.Err = r.work(ctx, name, op, &res)
	res.Duration = time.Since(start)

	if r.config.Logger != nil {
		if res.Err != nil {
			r.config.Logger.Errorf("%s: %v", name, res.Err)
		} else {
			r.config.Logger.Infof("%s: %s done in %s", name, op, res.Duration.Round(time.Millisecond))
		}
	}
	return res
}

func (r *Runner) work(ctx context.Context, name string, op Operation, res *Result) error {
	// Reject a bad image before the unlock self-test overwrites the cartridge
	if err := op.Validate(); err != nil {
		return err
	}

	port, err := r.opener.Open(ctx, name)
	if err != nil {
		return err
	}
	defer port.Close()

	sessOpts := append([]device.Option{device.WithName(name)}, r.config.SessionOptions...)
	flashOpts := append([]flasher.Option{flasher.WithName(name)}, r.config.FlasherOptions...)
	if r.config.Logger != nil {
		sessOpts = append(sessOpts, device.WithLogger(r.config.Logger))
		flashOpts = append(flashOpts, flasher.WithLogger(r.config.Logger))
	}

	sess, err := device.Open(port, sessOpts...)
	if err != nil {
		return err
	}
	f := flasher.New(sess, flashOpts...)

	v, err := f.CheckVersion(ctx)
	res.Version = v
	if err != nil {
		return err
	}
	if err := f.EnsureUnlocked(ctx); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return op.run(ctx, f, res)
}
