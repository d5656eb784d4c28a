package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrUnknownKind     = errors.New("unknown kind")
)

type ScheduleKind string

const (
	ScheduleEvery ScheduleKind = "every"
	ScheduleAt    ScheduleKind = "at"
	ScheduleCron  ScheduleKind = "cron"
)

type EveryUnit string

const (
	UnitMinutes EveryUnit = "minutes"
	UnitHours   EveryUnit = "hours"
	UnitDays    EveryUnit = "days"
)

// Duration returns the length of one unit, or zero for an unknown unit.
func (u EveryUnit) Duration() time.Duration {
	switch u {
	case UnitMinutes:
		return time.Minute
	case UnitHours:
		return time.Hour
	case UnitDays:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Schedule describes when a job fires. The set of implementations is closed:
// EverySchedule, AtSchedule and CronSchedule.
type Schedule interface {
	Kind() ScheduleKind
	Validate() error
	isSchedule()
}

type EverySchedule struct {
	Amount int64
	Unit   EveryUnit
}

type AtSchedule struct {
	At time.Time
}

type CronSchedule struct {
	Expr string
	TZ   string
}

func (EverySchedule) Kind() ScheduleKind { return ScheduleEvery }
func (AtSchedule) Kind() ScheduleKind    { return ScheduleAt }
func (CronSchedule) Kind() ScheduleKind  { return ScheduleCron }

func (EverySchedule) isSchedule() {}
func (AtSchedule) isSchedule()    {}
func (CronSchedule) isSchedule()  {}

func (s EverySchedule) Interval() time.Duration {
	return time.Duration(s.Amount) * s.Unit.Duration()
}

func (s EverySchedule) Validate() error {
	if s.Amount <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidSchedule)
	}
	if s.Unit.Duration() == 0 {
		return fmt.Errorf("%w: unit %q", ErrInvalidSchedule, s.Unit)
	}
	return nil
}

func (s AtSchedule) Validate() error {
	if s.At.IsZero() {
		return fmt.Errorf("%w: run-at time is required", ErrInvalidSchedule)
	}
	return nil
}

func (s CronSchedule) Validate() error {
	if strings.TrimSpace(s.Expr) == "" {
		return fmt.Errorf("%w: cron expression is required", ErrInvalidSchedule)
	}
	return nil
}

// EveryFromMs converts a gateway interval into the largest unit that divides it
// evenly. Intervals that are not whole minutes are rounded to the nearest minute.
func EveryFromMs(ms int64) EverySchedule {
	for _, unit := range []EveryUnit{UnitDays, UnitHours, UnitMinutes} {
		size := unit.Duration().Milliseconds()
		if ms > 0 && ms%size == 0 {
			return EverySchedule{Amount: ms / size, Unit: unit}
		}
	}
	minutes := (ms + time.Minute.Milliseconds()/2) / time.Minute.Milliseconds()
	if minutes < 1 {
		minutes = 1
	}
	return EverySchedule{Amount: minutes, Unit: UnitMinutes}
}

type scheduleWire struct {
	Kind    ScheduleKind `json:"kind"`
	AtMs    int64        `json:"atMs,omitempty"`
	EveryMs int64        `json:"everyMs,omitempty"`
	Expr    string       `json:"expr,omitempty"`
	TZ      string       `json:"tz,omitempty"`
}

func MarshalSchedule(s Schedule) ([]byte, error) {
	var w scheduleWire
	switch v := s.(type) {
	case EverySchedule:
		w = scheduleWire{Kind: ScheduleEvery, EveryMs: v.Interval().Milliseconds()}
	case AtSchedule:
		w = scheduleWire{Kind: ScheduleAt, AtMs: v.At.UnixMilli()}
	case CronSchedule:
		w = scheduleWire{Kind: ScheduleCron, Expr: v.Expr, TZ: v.TZ}
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("%w: schedule %T", ErrUnknownKind, s)
	}
	return json.Marshal(w)
}

func UnmarshalSchedule(data []byte) (Schedule, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var w scheduleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}

	switch w.Kind {
	case ScheduleEvery:
		return EveryFromMs(w.EveryMs), nil
	case ScheduleAt:
		return AtSchedule{At: time.UnixMilli(w.AtMs)}, nil
	case ScheduleCron:
		return CronSchedule{Expr: w.Expr, TZ: w.TZ}, nil
	default:
		return nil, fmt.Errorf("%w: schedule %q", ErrUnknownKind, w.Kind)
	}
}
