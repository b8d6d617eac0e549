package fleet

import "fmt"

// SelectTargets decides which devices to run on. Explicitly named ports
// always win. Otherwise broadcast selects every discovered device, and
// without broadcast exactly one discovered device is required.
func SelectTargets(explicit, discovered []string, broadcast bool) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	switch {
	case len(discovered) == 0:
		return nil, ErrNoDevices
	case broadcast:
		return discovered, nil
	case len(discovered) > 1:
		return nil, fmt.Errorf("%w: %v", ErrAmbiguousTargets, discovered)
	default:
		return discovered[:1], nil
	}
}
