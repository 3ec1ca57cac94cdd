package models

// Status is the overall state of one load/refresh cycle. It is a linear flag,
// not a state machine: Idle moves to Loading when a cycle starts, and Loading
// moves to exactly one of Success, Error or Denied when the geolocation branch
// completes. The address-resolution branch never moves a Success backward.
type Status int

const (
	// StatusIdle means no cycle has been started yet.
	StatusIdle Status = iota
	// StatusLoading means a cycle is in flight.
	StatusLoading
	// StatusSuccess means a GPS fix was obtained; address text is best-effort.
	StatusSuccess
	// StatusError means the environment has no geolocation capability.
	StatusError
	// StatusDenied means the geolocation request failed or was refused.
	StatusDenied
)

// String returns the lowercase wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}
