package form

import (
	"testing"
	"time"

	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/stretchr/testify/assert"
)

func validState() State {
	s := Default()
	s.Name = "Morning check-in"
	s.PayloadText = "wake"
	return s
}

func TestValidateDefaultsNeedNameAndText(t *testing.T) {
	errs := Validate(Default())

	assert.Len(t, errs, 2)
	assert.Equal(t, "Name is required", errs[FieldName])
	assert.Equal(t, "System event text is required", errs[FieldPayloadText])
	assert.False(t, CanSubmit(errs, false))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		patch  func(s *State)
		field  string
		expect string
	}{
		{
			name:   "blank name",
			patch:  func(s *State) { s.Name = "   " },
			field:  FieldName,
			expect: "Name is required",
		},
		{
			name: "at without time",
			patch: func(s *State) {
				s.ScheduleKind = types.ScheduleAt
				s.ScheduleAt = ""
			},
			field:  FieldScheduleAt,
			expect: "Run at time is required",
		},
		{
			name:   "every with zero amount",
			patch:  func(s *State) { s.EveryAmount = "0" },
			field:  FieldEveryAmount,
			expect: "Valid interval required",
		},
		{
			name:   "every with negative amount",
			patch:  func(s *State) { s.EveryAmount = "-5" },
			field:  FieldEveryAmount,
			expect: "Valid interval required",
		},
		{
			name:   "every with text",
			patch:  func(s *State) { s.EveryAmount = "soon" },
			field:  FieldEveryAmount,
			expect: "Valid interval required",
		},
		{
			name:   "every with blank amount",
			patch:  func(s *State) { s.EveryAmount = "  " },
			field:  FieldEveryAmount,
			expect: "Valid interval required",
		},
		{
			name:   "every with infinity",
			patch:  func(s *State) { s.EveryAmount = "Inf" },
			field:  FieldEveryAmount,
			expect: "Valid interval required",
		},
		{
			name: "cron without expression",
			patch: func(s *State) {
				s.ScheduleKind = types.ScheduleCron
				s.CronExpr = " "
			},
			field:  FieldCronExpr,
			expect: "Cron expression is required",
		},
		{
			name: "agent turn without message",
			patch: func(s *State) {
				s.PayloadKind = types.PayloadAgentTurn
				s.PayloadText = ""
			},
			field:  FieldPayloadText,
			expect: "Agent message is required",
		},
		{
			name: "deliver without recipient",
			patch: func(s *State) {
				s.PayloadKind = types.PayloadAgentTurn
				s.Deliver = true
				s.To = " "
			},
			field:  FieldTo,
			expect: "Recipient required when delivery is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validState()
			tt.patch(&s)

			errs := Validate(s)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.expect, errs[tt.field])
			assert.True(t, errs.Has(tt.field))
		})
	}
}

func TestValidateIgnoresInactiveScheduleFields(t *testing.T) {
	s := validState()
	s.ScheduleKind = types.ScheduleCron
	s.EveryAmount = "not a number"
	s.ScheduleAt = ""

	assert.Empty(t, Validate(s))
}

func TestValidateDoesNotCheckCronGrammar(t *testing.T) {
	s := validState()
	s.ScheduleKind = types.ScheduleCron
	s.CronExpr = "definitely not cron"

	assert.Empty(t, Validate(s))
}

func TestValidateAcceptsFractionalInterval(t *testing.T) {
	s := validState()
	s.EveryAmount = " 1.5 "
	s.EveryUnit = types.UnitHours

	assert.Empty(t, Validate(s))
}

func TestValidateIntervalBounds(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		unit   types.EveryUnit
		valid  bool
	}{
		{name: "one minute", amount: "1", unit: types.UnitMinutes, valid: true},
		{name: "quarter hour", amount: "0.25", unit: types.UnitHours, valid: true},
		{name: "large but representable", amount: "100000000", unit: types.UnitDays, valid: true},
		{name: "overflows int64", amount: "200000000000", unit: types.UnitDays},
		{name: "huge exponent", amount: "1e300", unit: types.UnitDays},
		{name: "under a minute", amount: "0.001", unit: types.UnitMinutes},
		{name: "half minute", amount: "0.5", unit: types.UnitMinutes},
		{name: "not whole minutes", amount: "1.5", unit: types.UnitMinutes},
		{name: "unknown unit", amount: "5", unit: types.EveryUnit("weeks")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validState()
			s.EveryAmount = tt.amount
			s.EveryUnit = tt.unit

			errs := Validate(s)
			preview := PreviewSchedule(s, time.UTC, time.Now())
			if tt.valid {
				assert.Empty(t, errs)
				assert.Equal(t, PreviewSuccess, preview.Status)
				return
			}
			assert.Equal(t, "Valid interval required", errs[FieldEveryAmount])
			assert.Equal(t, PreviewError, preview.Status)
			assert.False(t, CanSubmit(errs, false))
		})
	}
}

func TestValidateUnknownKinds(t *testing.T) {
	s := validState()
	s.ScheduleKind = types.ScheduleKind("bogus")

	errs := Validate(s)
	assert.Equal(t, "Schedule type is required", errs[FieldScheduleKind])
	assert.False(t, CanSubmit(errs, false))

	s = validState()
	s.PayloadKind = types.PayloadKind("bogus")
	s.PayloadText = ""

	errs = Validate(s)
	assert.Equal(t, "Payload type is required", errs[FieldPayloadKind])
	assert.Equal(t, "Payload text is required", errs[FieldPayloadText])
	assert.False(t, CanSubmit(errs, false))
}

func TestCanSubmit(t *testing.T) {
	assert.True(t, CanSubmit(Errors{}, false))
	assert.False(t, CanSubmit(Errors{}, true))
	assert.False(t, CanSubmit(Errors{FieldName: "Name is required"}, false))
}
