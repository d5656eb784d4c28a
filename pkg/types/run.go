package types

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	RunFailed  RunStatus = "failed"
	RunRunning RunStatus = "running"
)

// RunClass is the three-way classification used for status icons.
type RunClass string

const (
	RunClassSuccess RunClass = "success"
	RunClassError   RunClass = "error"
	RunClassRunning RunClass = "running"
)

// RunLogEntry is one historical execution of a job.
type RunLogEntry struct {
	Ts         int64     `json:"ts"`
	JobID      string    `json:"jobId"`
	Status     RunStatus `json:"status"`
	DurationMs *int64    `json:"durationMs,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func (e RunLogEntry) Class() RunClass {
	switch e.Status {
	case RunSuccess:
		return RunClassSuccess
	case RunError, RunFailed:
		return RunClassError
	default:
		return RunClassRunning
	}
}

// Duration returns the run duration in milliseconds, zero when unknown.
func (e RunLogEntry) Duration() int64 {
	if e.DurationMs == nil {
		return 0
	}
	return *e.DurationMs
}
