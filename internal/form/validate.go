package form

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/0xPuncker/cron-console/pkg/types"
)

// Field names used as keys of Errors. They match the JSON names of State.
const (
	FieldName         = "name"
	FieldScheduleKind = "scheduleKind"
	FieldScheduleAt   = "scheduleAt"
	FieldEveryAmount  = "everyAmount"
	FieldCronExpr     = "cronExpr"
	FieldPayloadKind  = "payloadKind"
	FieldPayloadText  = "payloadText"
	FieldTo           = "to"
)

// Errors maps a field name to its error message. A field without an error has no key.
type Errors map[string]string

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Validate checks the form field by field. Every rule runs on its own, so one
// field never hides the error of another.
func Validate(s State) Errors {
	errs := Errors{}

	if strings.TrimSpace(s.Name) == "" {
		errs[FieldName] = "Name is required"
	}

	switch s.ScheduleKind {
	case types.ScheduleAt:
		if s.ScheduleAt == "" {
			errs[FieldScheduleAt] = "Run at time is required"
		}
	case types.ScheduleEvery:
		if _, ok := IntervalMs(s.EveryAmount, s.EveryUnit); !ok {
			errs[FieldEveryAmount] = "Valid interval required"
		}
	case types.ScheduleCron:
		if strings.TrimSpace(s.CronExpr) == "" {
			errs[FieldCronExpr] = "Cron expression is required"
		}
	default:
		errs[FieldScheduleKind] = "Schedule type is required"
	}

	switch s.PayloadKind {
	case types.PayloadSystemEvent, types.PayloadAgentTurn:
	default:
		errs[FieldPayloadKind] = "Payload type is required"
	}

	if strings.TrimSpace(s.PayloadText) == "" {
		switch s.PayloadKind {
		case types.PayloadSystemEvent:
			errs[FieldPayloadText] = "System event text is required"
		case types.PayloadAgentTurn:
			errs[FieldPayloadText] = "Agent message is required"
		default:
			errs[FieldPayloadText] = "Payload text is required"
		}
	}

	if s.Deliver && strings.TrimSpace(s.To) == "" {
		errs[FieldTo] = "Recipient required when delivery is enabled"
	}

	return errs
}

// CanSubmit reports whether the submit control is enabled.
func CanSubmit(errs Errors, busy bool) bool {
	return len(errs) == 0 && !busy
}

// IntervalMs converts an interval amount in unit to milliseconds. The result must
// be a whole number of minutes that fits in an int64, the only intervals the
// gateway stores without rounding.
func IntervalMs(raw string, unit types.EveryUnit) (int64, bool) {
	amount, ok := parseAmount(raw)
	if !ok {
		return 0, false
	}
	size := unit.Duration().Milliseconds()
	if size == 0 {
		return 0, false
	}
	minute := time.Minute.Milliseconds()
	ms := amount * float64(size)
	if ms >= float64(math.MaxInt64) || ms < float64(minute) {
		return 0, false
	}
	whole := math.Round(ms)
	if math.Abs(ms-whole) > 1e-6*ms || int64(whole)%minute != 0 {
		return 0, false
	}
	return int64(whole), true
}

// parseAmount reads an interval amount. It accepts any finite number greater than zero.
func parseAmount(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, false
	}
	return amount, true
}
