package fleet

import (
	"github.com/moffa90/go-gblive32/device"
	"github.com/moffa90/go-gblive32/flasher"
)

// Config holds the runner configuration.
type Config struct {
	// Logger receives per-device progress (optional)
	Logger device.Logger

	// SessionOptions are applied to every device.Open
	SessionOptions []device.Option

	// FlasherOptions are applied to every flasher.New
	FlasherOptions []flasher.Option
}

// Option is a functional option for configuring the Runner.
type Option func(*Config)

// WithLogger sets the logger passed to every session and flasher.
//
// Example:
//
//	r := fleet.NewRunner(opener, fleet.WithLogger(golog.Default))
func WithLogger(logger device.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSessionOptions appends options for every device session.
func WithSessionOptions(opts ...device.Option) Option {
	return func(c *Config) {
		c.SessionOptions = append(c.SessionOptions, opts...)
	}
}

// WithFlasherOptions appends options for every flasher.
func WithFlasherOptions(opts ...flasher.Option) Option {
	return func(c *Config) {
		c.FlasherOptions = append(c.FlasherOptions, opts...)
	}
}
