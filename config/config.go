// Package config loads the gblive32 JSON configuration file.
//
// Every field is optional; missing fields keep their defaults.
//
//	{
//	    "baud_rate": 115200,
//	    "read_timeout_ms": 200,
//	    "handshake_retries": 10,
//	    "supported_versions": ["2.0", "2.1"],
//	    "log_level": "info",
//	    "discovery": {"vid": "16C0", "pid": "05E1", "products": ["GB-LIVE32", "GB_LIVE32"]}
//	}
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/moffa90/go-gblive32/device"
	"github.com/moffa90/go-gblive32/flasher"
	"github.com/moffa90/go-gblive32/protocol"
	"github.com/moffa90/go-gblive32/serialport"
)

// JSON is the codec used for the config file and the CLI's report output.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

var logLevels = []string{"disable", "fatal", "error", "warn", "info", "debug"}

// Cfg is the contents of the config file. Durations are in milliseconds.
type Cfg struct {
	BaudRate          int               `json:"baud_rate"`
	ReadTimeoutMS     int               `json:"read_timeout_ms"`
	HandshakeRetries  int               `json:"handshake_retries"`
	SupportedVersions []string          `json:"supported_versions"`
	LogLevel          string            `json:"log_level"`
	Discovery         serialport.Filter `json:"discovery"`
}

// Default returns the built-in configuration.
func Default() *Cfg {
	versions := make([]string, 0, len(flasher.DefaultSupportedVersions))
	for _, v := range flasher.DefaultSupportedVersions {
		versions = append(versions, fmt.Sprintf("%d.%d", v.Major, v.Minor))
	}
	filter := serialport.DefaultFilter
	filter.Products = append([]string(nil), filter.Products...)

	return &Cfg{
		BaudRate:          serialport.DefaultBaudRate,
		ReadTimeoutMS:     int(device.DefaultReadTimeout / time.Millisecond),
		HandshakeRetries:  device.DefaultHandshakeRetries,
		SupportedVersions: versions,
		LogLevel:          "info",
		Discovery:         filter,
	}
}

// Load reads and validates the config file at path.
func Load(path string) (*Cfg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Cfg, error) {
	cfg := Default()
	if err := JSON.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Cfg) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate)
	}
	if c.ReadTimeoutMS <= 0 {
		return fmt.Errorf("read_timeout_ms must be positive, got %d", c.ReadTimeoutMS)
	}
	if c.HandshakeRetries < 0 {
		return fmt.Errorf("handshake_retries must not be negative, got %d", c.HandshakeRetries)
	}
	if _, err := c.Versions(); err != nil {
		return err
	}
	if !validLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel)
	}
	if c.Discovery.VID == "" || c.Discovery.PID == "" {
		return fmt.Errorf("discovery vid and pid are required")
	}
	return nil
}

func validLevel(level string) bool {
	for _, l := range logLevels {
		if level == l {
			return true
		}
	}
	return false
}

// ReadTimeout returns the per-read timeout.
func (c *Cfg) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// Versions parses SupportedVersions.
func (c *Cfg) Versions() ([]protocol.Version, error) {
	versions := make([]protocol.Version, 0, len(c.SupportedVersions))
	for _, s := range c.SupportedVersions {
		v, err := protocol.ParseVersion(s)
		if err != nil {
			return nil, fmt.Errorf("supported_versions: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// SessionOptions returns the device options this config implies.
func (c *Cfg) SessionOptions() []device.Option {
	return []device.Option{
		device.WithReadTimeout(c.ReadTimeout()),
		device.WithHandshakeRetries(c.HandshakeRetries),
	}
}

// FlasherOptions returns the flasher options this config implies. It fails
// if SupportedVersions does not parse.
func (c *Cfg) FlasherOptions() ([]flasher.Option, error) {
	versions, err := c.Versions()
	if err != nil {
		return nil, err
	}
	return []flasher.Option{flasher.WithSupportedVersions(versions...)}, nil
}

// SerialOptions returns the serialport options this config implies.
func (c *Cfg) SerialOptions() []serialport.Option {
	return []serialport.Option{serialport.WithBaudRate(c.BaudRate)}
}
