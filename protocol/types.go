package protocol

import "fmt"

// Status contains the controller state flags.
// Returned by the GetStatus command.
type Status struct {
	// Unlocked permits page writes and full-image writes
	Unlocked bool `json:"unlocked"`

	// Passthrough connects the cartridge memory to the target system bus
	Passthrough bool `json:"passthrough"`

	// Reset holds the target system in reset
	Reset bool `json:"reset"`
}

func (s Status) String() string {
	return fmt.Sprintf("unlocked=%t, passthrough=%t, reset=%t", s.Unlocked, s.Passthrough, s.Reset)
}

// Version is the controller firmware version.
// Returned by the GetVersion command.
type Version struct {
	Major byte `json:"major"`
	Minor byte `json:"minor"`
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// ParseVersion parses "2.1" or "v2.1" into a Version.
func ParseVersion(s string) (Version, error) {
	var major, minor uint8
	if len(s) > 0 && (s[0] == 'v' || s[0] == 'V') {
		s = s[1:]
	}
	if _, err := fmt.Sscanf(s, "%d.%d", &major, &minor); err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{Major: major, Minor: minor}, nil
}
