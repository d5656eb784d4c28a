package types

import (
	"encoding/json"
	"fmt"
)

type SessionTarget string

const (
	SessionMain     SessionTarget = "main"
	SessionIsolated SessionTarget = "isolated"
)

type WakeMode string

const (
	WakeNextHeartbeat WakeMode = "next-heartbeat"
	WakeNow           WakeMode = "now"
)

// Isolation controls how isolated runs report back to the main session.
type Isolation struct {
	PostToMainPrefix string `json:"postToMainPrefix,omitempty"`
}

// JobState is the runtime state reported by the gateway.
type JobState struct {
	NextRunAtMs    *int64 `json:"nextRunAtMs,omitempty"`
	RunningAtMs    *int64 `json:"runningAtMs,omitempty"`
	LastRunAtMs    *int64 `json:"lastRunAtMs,omitempty"`
	LastStatus     string `json:"lastStatus,omitempty"`
	LastError      string `json:"lastError,omitempty"`
	LastDurationMs *int64 `json:"lastDurationMs,omitempty"`
}

// Job is a scheduled job as stored by the gateway.
type Job struct {
	ID            string
	Name          string
	Description   string
	AgentID       string
	Enabled       bool
	CreatedAtMs   int64
	UpdatedAtMs   int64
	Schedule      Schedule
	SessionTarget SessionTarget
	WakeMode      WakeMode
	Payload       Payload
	Isolation     *Isolation
	State         JobState
}

// JobInput is the body of an add or update call.
type JobInput struct {
	Name          string
	Description   string
	AgentID       string
	Enabled       bool
	Schedule      Schedule
	SessionTarget SessionTarget
	WakeMode      WakeMode
	Payload       Payload
	Isolation     *Isolation
}

func (in JobInput) Validate() error {
	if in.Schedule == nil {
		return fmt.Errorf("%w: schedule is required", ErrInvalidSchedule)
	}
	if err := in.Schedule.Validate(); err != nil {
		return err
	}
	if in.Payload == nil {
		return fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	return in.Payload.Validate()
}

type jobWire struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	AgentID       string          `json:"agentId,omitempty"`
	Enabled       bool            `json:"enabled"`
	CreatedAtMs   int64           `json:"createdAtMs,omitempty"`
	UpdatedAtMs   int64           `json:"updatedAtMs,omitempty"`
	Schedule      json.RawMessage `json:"schedule"`
	SessionTarget SessionTarget   `json:"sessionTarget"`
	WakeMode      WakeMode        `json:"wakeMode,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Isolation     *Isolation      `json:"isolation,omitempty"`
	State         *JobState       `json:"state,omitempty"`
}

func encodeUnions(s Schedule, p Payload) (json.RawMessage, json.RawMessage, error) {
	schedule, err := MarshalSchedule(s)
	if err != nil {
		return nil, nil, err
	}
	payload, err := MarshalPayload(p)
	if err != nil {
		return nil, nil, err
	}
	return schedule, payload, nil
}

func (j Job) MarshalJSON() ([]byte, error) {
	schedule, payload, err := encodeUnions(j.Schedule, j.Payload)
	if err != nil {
		return nil, err
	}
	state := j.State
	return json.Marshal(jobWire{
		ID:            j.ID,
		Name:          j.Name,
		Description:   j.Description,
		AgentID:       j.AgentID,
		Enabled:       j.Enabled,
		CreatedAtMs:   j.CreatedAtMs,
		UpdatedAtMs:   j.UpdatedAtMs,
		Schedule:      schedule,
		SessionTarget: j.SessionTarget,
		WakeMode:      j.WakeMode,
		Payload:       payload,
		Isolation:     j.Isolation,
		State:         &state,
	})
}

func (j *Job) UnmarshalJSON(data []byte) error {
	var w jobWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	schedule, err := UnmarshalSchedule(w.Schedule)
	if err != nil {
		return fmt.Errorf("job %s: %w", w.ID, err)
	}
	payload, err := UnmarshalPayload(w.Payload)
	if err != nil {
		return fmt.Errorf("job %s: %w", w.ID, err)
	}

	*j = Job{
		ID:            w.ID,
		Name:          w.Name,
		Description:   w.Description,
		AgentID:       w.AgentID,
		Enabled:       w.Enabled,
		CreatedAtMs:   w.CreatedAtMs,
		UpdatedAtMs:   w.UpdatedAtMs,
		Schedule:      schedule,
		SessionTarget: w.SessionTarget,
		WakeMode:      w.WakeMode,
		Payload:       payload,
		Isolation:     w.Isolation,
	}
	if w.State != nil {
		j.State = *w.State
	}
	return nil
}

func (in JobInput) MarshalJSON() ([]byte, error) {
	schedule, payload, err := encodeUnions(in.Schedule, in.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jobWire{
		Name:          in.Name,
		Description:   in.Description,
		AgentID:       in.AgentID,
		Enabled:       in.Enabled,
		Schedule:      schedule,
		SessionTarget: in.SessionTarget,
		WakeMode:      in.WakeMode,
		Payload:       payload,
		Isolation:     in.Isolation,
	})
}

func (in *JobInput) UnmarshalJSON(data []byte) error {
	var job Job
	if err := job.UnmarshalJSON(data); err != nil {
		return err
	}
	*in = job.Input()
	return nil
}

// Input returns the editable part of the job.
func (j Job) Input() JobInput {
	return JobInput{
		Name:          j.Name,
		Description:   j.Description,
		AgentID:       j.AgentID,
		Enabled:       j.Enabled,
		Schedule:      j.Schedule,
		SessionTarget: j.SessionTarget,
		WakeMode:      j.WakeMode,
		Payload:       j.Payload,
		Isolation:     j.Isolation,
	}
}
