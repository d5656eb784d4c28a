package types

var (
	ScheduleKinds  = []ScheduleKind{ScheduleEvery, ScheduleAt, ScheduleCron}
	EveryUnits     = []EveryUnit{UnitMinutes, UnitHours, UnitDays}
	SessionTargets = []SessionTarget{SessionMain, SessionIsolated}
	WakeModes      = []WakeMode{WakeNextHeartbeat, WakeNow}
	PayloadKinds   = []PayloadKind{PayloadSystemEvent, PayloadAgentTurn}
)

// Timezones offered for cron schedules. An empty value means the gateway's local zone.
var Timezones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Asia/Tokyo",
	"Asia/Shanghai",
	"Asia/Singapore",
	"Australia/Sydney",
}

type CronExample struct {
	Expr        string
	Description string
}

var CronExamples = []CronExample{
	{Expr: "0 9 * * *", Description: "Every day at 9:00 AM"},
	{Expr: "*/15 * * * *", Description: "Every 15 minutes"},
	{Expr: "0 0 * * 0", Description: "Every Sunday at midnight"},
	{Expr: "30 8 * * 1-5", Description: "Weekdays at 8:30 AM"},
	{Expr: "0 12 * * *", Description: "Every day at noon"},
}

var WakeModeHints = map[WakeMode]string{
	WakeNextHeartbeat: "Waits for the next scheduled heartbeat check (more power-efficient)",
	WakeNow:           "Immediately wakes the gateway (uses more resources)",
}

var SessionTargetHints = map[SessionTarget]string{
	SessionMain:     "Uses the main agent session (shared context)",
	SessionIsolated: "Creates a separate session with optional posting to main",
}

var PayloadKindHints = map[PayloadKind]string{
	PayloadSystemEvent: "Sends a system event that can trigger workflows",
	PayloadAgentTurn:   "Sends a message to the agent for processing",
}

const (
	DeliverHint         = "Delivers the response back to the original channel"
	IsolatedSessionHint = "Creates a separate session context to avoid state pollution"
	LastChannel         = "last"
	CronExpressionGuide = "https://crontab.guru/"
)
