package form

import "github.com/0xPuncker/cron-console/pkg/types"

// State holds the raw values of the job editor. Numeric inputs stay text so that
// half-typed values survive a round trip through the browser.
type State struct {
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	AgentID          string              `json:"agentId"`
	Enabled          bool                `json:"enabled"`
	ScheduleKind     types.ScheduleKind  `json:"scheduleKind"`
	ScheduleAt       string              `json:"scheduleAt"`
	EveryAmount      string              `json:"everyAmount"`
	EveryUnit        types.EveryUnit     `json:"everyUnit"`
	CronExpr         string              `json:"cronExpr"`
	CronTZ           string              `json:"cronTz"`
	SessionTarget    types.SessionTarget `json:"sessionTarget"`
	WakeMode         types.WakeMode      `json:"wakeMode"`
	PayloadKind      types.PayloadKind   `json:"payloadKind"`
	PayloadText      string              `json:"payloadText"`
	Deliver          bool                `json:"deliver"`
	Channel          string              `json:"channel"`
	To               string              `json:"to"`
	TimeoutSeconds   string              `json:"timeoutSeconds"`
	PostToMainPrefix string              `json:"postToMainPrefix"`
}

// Patch is a partial update of State. Nil fields are left untouched.
type Patch struct {
	Name             *string
	Description      *string
	AgentID          *string
	Enabled          *bool
	ScheduleKind     *types.ScheduleKind
	ScheduleAt       *string
	EveryAmount      *string
	EveryUnit        *types.EveryUnit
	CronExpr         *string
	CronTZ           *string
	SessionTarget    *types.SessionTarget
	WakeMode         *types.WakeMode
	PayloadKind      *types.PayloadKind
	PayloadText      *string
	Deliver          *bool
	Channel          *string
	To               *string
	TimeoutSeconds   *string
	PostToMainPrefix *string
}

// Default returns the state of a blank "New Job" form.
func Default() State {
	return State{
		Enabled:       true,
		ScheduleKind:  types.ScheduleEvery,
		EveryAmount:   "30",
		EveryUnit:     types.UnitMinutes,
		CronExpr:      "0 7 * * *",
		SessionTarget: types.SessionMain,
		WakeMode:      types.WakeNextHeartbeat,
		PayloadKind:   types.PayloadSystemEvent,
		Channel:       types.LastChannel,
	}
}

// Apply returns a copy of s with every non-nil field of p written over it.
func (s State) Apply(p Patch) State {
	setString(&s.Name, p.Name)
	setString(&s.Description, p.Description)
	setString(&s.AgentID, p.AgentID)
	setBool(&s.Enabled, p.Enabled)
	if p.ScheduleKind != nil {
		s.ScheduleKind = *p.ScheduleKind
	}
	setString(&s.ScheduleAt, p.ScheduleAt)
	setString(&s.EveryAmount, p.EveryAmount)
	if p.EveryUnit != nil {
		s.EveryUnit = *p.EveryUnit
	}
	setString(&s.CronExpr, p.CronExpr)
	setString(&s.CronTZ, p.CronTZ)
	if p.SessionTarget != nil {
		s.SessionTarget = *p.SessionTarget
	}
	if p.WakeMode != nil {
		s.WakeMode = *p.WakeMode
	}
	if p.PayloadKind != nil {
		s.PayloadKind = *p.PayloadKind
	}
	setString(&s.PayloadText, p.PayloadText)
	setBool(&s.Deliver, p.Deliver)
	setString(&s.Channel, p.Channel)
	setString(&s.To, p.To)
	setString(&s.TimeoutSeconds, p.TimeoutSeconds)
	setString(&s.PostToMainPrefix, p.PostToMainPrefix)
	return s
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
