package device

import (
	"crypto/rand"
	"io"
	"time"
)

// Default session parameters.
const (
	// DefaultReadTimeout bounds every read on the connection
	DefaultReadTimeout = 200 * time.Millisecond

	// DefaultHandshakeRetries is the number of failed ping rounds tolerated;
	// the handshake fails on the next failure
	DefaultHandshakeRetries = 10
)

// Config holds the session configuration.
type Config struct {
	// ReadTimeout is applied to the connection before the handshake
	ReadTimeout time.Duration

	// HandshakeRetries is the number of failed rounds tolerated
	HandshakeRetries int

	// Entropy supplies the random ping payloads
	Entropy io.Reader

	// Logger is used for logging operations (optional)
	Logger Logger

	// Name identifies the device in log messages (optional)
	Name string
}

func defaultConfig() Config {
	return Config{
		ReadTimeout:      DefaultReadTimeout,
		HandshakeRetries: DefaultHandshakeRetries,
		Entropy:          rand.Reader,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithReadTimeout sets the connection read timeout.
//
// Example:
//
//	sess, err := device.Open(port, device.WithReadTimeout(500*time.Millisecond))
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithHandshakeRetries sets how many failed ping rounds are tolerated.
func WithHandshakeRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.HandshakeRetries = retries
		}
	}
}

// WithEntropy replaces crypto/rand as the source of ping payloads.
func WithEntropy(r io.Reader) Option {
	return func(c *Config) {
		if r != nil {
			c.Entropy = r
		}
	}
}

// WithLogger sets a logger for session operations.
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
