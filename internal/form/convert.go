package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/0xPuncker/cron-console/pkg/types"
)

const (
	runAtInputLayout = "2006-01-02T15:04"
	copySuffix       = " (copy)"
)

// FromJob fills the form from an existing job. Fields that the job's schedule
// or payload kind does not use keep their defaults, so switching kind in the
// editor starts from sensible values.
func FromJob(job types.Job, loc *time.Location) State {
	if loc == nil {
		loc = time.Local
	}

	s := Default()
	s.Name = job.Name
	s.Description = job.Description
	s.AgentID = job.AgentID
	s.Enabled = job.Enabled
	if job.SessionTarget != "" {
		s.SessionTarget = job.SessionTarget
	}
	if job.WakeMode != "" {
		s.WakeMode = job.WakeMode
	}
	if job.Isolation != nil {
		s.PostToMainPrefix = job.Isolation.PostToMainPrefix
	}

	switch sched := job.Schedule.(type) {
	case types.EverySchedule:
		s.ScheduleKind = types.ScheduleEvery
		s.EveryAmount = strconv.FormatInt(sched.Amount, 10)
		s.EveryUnit = sched.Unit
	case types.AtSchedule:
		s.ScheduleKind = types.ScheduleAt
		s.ScheduleAt = sched.At.In(loc).Format(runAtInputLayout)
	case types.CronSchedule:
		s.ScheduleKind = types.ScheduleCron
		s.CronExpr = sched.Expr
		s.CronTZ = sched.TZ
	}

	switch payload := job.Payload.(type) {
	case types.SystemEventPayload:
		s.PayloadKind = types.PayloadSystemEvent
		s.PayloadText = payload.Text
	case types.AgentTurnPayload:
		s.PayloadKind = types.PayloadAgentTurn
		s.PayloadText = payload.Message
		s.Deliver = payload.Deliver
		if payload.Channel != "" {
			s.Channel = payload.Channel
		}
		s.To = payload.To
		if payload.TimeoutSeconds > 0 {
			s.TimeoutSeconds = strconv.Itoa(payload.TimeoutSeconds)
		}
	}

	return s
}

// Duplicate fills the form from job as a new, unsaved copy.
func Duplicate(job types.Job, loc *time.Location) State {
	s := FromJob(job, loc)
	s.Name += copySuffix
	return s
}

// Build converts a valid form into the body of an add or update call.
// Callers run Validate first; Build only reports what Validate cannot see.
func Build(s State, loc *time.Location) (types.JobInput, error) {
	if loc == nil {
		loc = time.Local
	}

	schedule, err := buildSchedule(s, loc)
	if err != nil {
		return types.JobInput{}, err
	}

	payload, err := buildPayload(s)
	if err != nil {
		return types.JobInput{}, err
	}

	in := types.JobInput{
		Name:          strings.TrimSpace(s.Name),
		Description:   strings.TrimSpace(s.Description),
		AgentID:       strings.TrimSpace(s.AgentID),
		Enabled:       s.Enabled,
		Schedule:      schedule,
		SessionTarget: s.SessionTarget,
		WakeMode:      s.WakeMode,
		Payload:       payload,
	}
	if s.SessionTarget == types.SessionIsolated && strings.TrimSpace(s.PostToMainPrefix) != "" {
		in.Isolation = &types.Isolation{PostToMainPrefix: s.PostToMainPrefix}
	}

	if err := in.Validate(); err != nil {
		return types.JobInput{}, err
	}
	return in, nil
}

func buildSchedule(s State, loc *time.Location) (types.Schedule, error) {
	switch s.ScheduleKind {
	case types.ScheduleAt:
		at, err := ParseRunAt(s.ScheduleAt, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidSchedule, err)
		}
		return types.AtSchedule{At: at}, nil
	case types.ScheduleEvery:
		ms, ok := IntervalMs(s.EveryAmount, s.EveryUnit)
		if !ok {
			return nil, fmt.Errorf("%w: invalid interval %q %s", types.ErrInvalidSchedule, s.EveryAmount, s.EveryUnit)
		}
		return types.EveryFromMs(ms), nil
	case types.ScheduleCron:
		return types.CronSchedule{
			Expr: strings.TrimSpace(s.CronExpr),
			TZ:   strings.TrimSpace(s.CronTZ),
		}, nil
	default:
		return nil, fmt.Errorf("%w: schedule %q", types.ErrUnknownKind, s.ScheduleKind)
	}
}

func buildPayload(s State) (types.Payload, error) {
	text := strings.TrimSpace(s.PayloadText)
	switch s.PayloadKind {
	case types.PayloadSystemEvent:
		return types.SystemEventPayload{Text: text}, nil
	case types.PayloadAgentTurn:
	default:
		return nil, fmt.Errorf("%w: payload %q", types.ErrUnknownKind, s.PayloadKind)
	}

	channel := strings.TrimSpace(s.Channel)
	if channel == "" {
		channel = types.LastChannel
	}
	timeout, err := strconv.Atoi(strings.TrimSpace(s.TimeoutSeconds))
	if err != nil || timeout < 0 {
		timeout = 0
	}
	return types.AgentTurnPayload{
		Message:        text,
		Deliver:        s.Deliver,
		Channel:        channel,
		To:             strings.TrimSpace(s.To),
		TimeoutSeconds: timeout,
	}, nil
}
