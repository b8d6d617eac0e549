package flasher

import (
	"crypto/rand"
	"io"

	"github.com/moffa90/go-gblive32/protocol"
)

// Config holds the flasher configuration.
type Config struct {
	// ProgressCallback is called at each phase boundary (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Name identifies the device in log messages (optional)
	Name string

	// Entropy supplies the self-test pattern
	Entropy io.Reader

	// SupportedVersions lists the firmware versions CheckVersion accepts
	SupportedVersions []protocol.Version
}

// DefaultSupportedVersions are the firmware versions this protocol dialect
// was written against.
var DefaultSupportedVersions = []protocol.Version{
	{Major: 2, Minor: 0},
	{Major: 2, Minor: 1},
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Entropy:           rand.Reader,
		SupportedVersions: DefaultSupportedVersions,
	}
}

// Option is a functional option for configuring the Flasher.
type Option func(*Config)

// WithProgressCallback sets a callback function to track workflow progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the flasher operations.
//
// Example:
//
//	f := flasher.New(sess, flasher.WithLogger(golog.Default))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithName sets the device name used as a log prefix.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithEntropy replaces crypto/rand as the source of the self-test pattern.
func WithEntropy(r io.Reader) Option {
	return func(c *Config) {
		if r != nil {
			c.Entropy = r
		}
	}
}

// WithSupportedVersions replaces the list of accepted firmware versions.
// An empty list accepts any version.
func WithSupportedVersions(versions ...protocol.Version) Option {
	return func(c *Config) {
		c.SupportedVersions = versions
	}
}
