package matching

import "errors"

var (
	ErrEmptyJobID = errors.New("job id is required")
	// ErrInFlight is returned when a batch match is triggered while another one is outstanding.
	ErrInFlight = errors.New("batch matching is already running")
	// ErrBatchFailed wraps every failure of the batch call: network, http status or missing data.
	ErrBatchFailed = errors.New("batch matching failed")
)

// State is the lifecycle shared by the progress reporter and the aggregator.
type State int

const (
	Idle State = iota
	Running
	Done
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Settled reports whether the state is terminal for the current run.
func (s State) Settled() bool {
	return s == Done || s == Error
}
