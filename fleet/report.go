package fleet

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/moffa90/go-gblive32/protocol"
)

// Result is the outcome for one device.
type Result struct {
	Device   string
	Version  protocol.Version
	Status   *protocol.Status // set by StatusOperation
	Duration time.Duration
	Err      error
}

// OK reports whether the device completed the operation.
func (r Result) OK() bool { return r.Err == nil }

// Report collects the results of Run in target order.
type Report struct {
	Operation Operation
	Results   []Result
}

// Failed returns the number of devices that failed.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Err returns a *multierror.Error holding one *DeviceError per failed
// device, or nil when every device succeeded.
func (r *Report) Err() error {
	var merr *multierror.Error
	for _, res := range r.Results {
		if res.Err != nil {
			merr = multierror.Append(merr, &DeviceError{Device: res.Device, Err: res.Err})
		}
	}
	return merr.ErrorOrNil()
}

// ResultSummary is the serializable form of a Result.
type ResultSummary struct {
	Device     string           `json:"device"`
	OK         bool             `json:"ok"`
	Version    string           `json:"version,omitempty"`
	Status     *protocol.Status `json:"status,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

// Summary is the serializable form of a Report.
type Summary struct {
	Operation string          `json:"operation"`
	Total     int             `json:"total"`
	Failed    int             `json:"failed"`
	Results   []ResultSummary `json:"results"`
}

// Summary flattens the report for JSON output.
func (r *Report) Summary() Summary {
	s := Summary{
		Operation: r.Operation.String(),
		Total:     len(r.Results),
		Failed:    r.Failed(),
		Results:   make([]ResultSummary, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		rs := ResultSummary{
			Device:     res.Device,
			OK:         res.OK(),
			Status:     res.Status,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Version != (protocol.Version{}) {
			rs.Version = res.Version.String()
		}
		if res.Err != nil {
			rs.Error = res.Err.Error()
		}
		s.Results = append(s.Results, rs)
	}
	return s
}
