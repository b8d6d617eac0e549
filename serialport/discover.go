package serialport

import (
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/moffa90/go-gblive32/device"
)

// Filter selects GB-LIVE32 controllers among the host's serial ports.
//
// 16C0:05E1 is a shared ID pair, so the product string is what tells a
// controller apart. The manufacturer string ("gekkio.fi") is not matched:
// go.bug.st/serial/enumerator does not report it.
type Filter struct {
	// VID and PID are hexadecimal USB IDs, compared case-insensitively
	VID string `json:"vid"`
	PID string `json:"pid"`

	// Products lists accepted USB product strings. Empty accepts any.
	Products []string `json:"products"`
}

// DefaultFilter matches the IDs and product strings the firmware reports.
var DefaultFilter = Filter{
	VID:      "16C0",
	PID:      "05E1",
	Products: []string{"GB-LIVE32", "GB_LIVE32"},
}

// Match reports whether the port details describe a controller.
func (f Filter) Match(d *enumerator.PortDetails) bool {
	if !d.IsUSB {
		return false
	}
	if !strings.EqualFold(d.VID, f.VID) || !strings.EqualFold(d.PID, f.PID) {
		return false
	}
	if len(f.Products) == 0 {
		return true
	}
	for _, p := range f.Products {
		if d.Product == p {
			return true
		}
	}
	return false
}

// listPorts is replaced in tests.
var listPorts = enumerator.GetDetailedPortsList

// Discover returns the names of all ports matching filter. Every port is
// logged as detected or skipped when logger is non-nil.
func Discover(filter Filter, logger device.Logger) ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, &device.TransportError{Op: "enumerate ports", Err: err}
	}

	var names []string
	for _, d := range ports {
		if filter.Match(d) {
			names = append(names, d.Name)
			if logger != nil {
				logger.Infof("Detected device: %s (%s:%s, product=%q, serial=%q)", d.Name, d.VID, d.PID, d.Product, d.SerialNumber)
			}
			continue
		}
		if logger != nil {
			logger.Debugf("Skipping device: %s (%s:%s, product=%q, serial=%q)", d.Name, d.VID, d.PID, d.Product, d.SerialNumber)
		}
	}
	return names, nil
}
