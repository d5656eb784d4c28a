package present

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/0xPuncker/cron-console/pkg/types"
)

var titleCaser = cases.Title(language.English)

// Title capitalises an enum value for display.
func Title(s string) string {
	return titleCaser.String(s)
}

var optionLabels = map[string]string{
	string(types.ScheduleEvery):      "Every (interval)",
	string(types.ScheduleAt):         "At (specific time)",
	string(types.ScheduleCron):       "Cron (expression)",
	string(types.WakeNextHeartbeat):  "Next heartbeat",
	string(types.PayloadSystemEvent): "System event",
	string(types.PayloadAgentTurn):   "Agent turn",
}

// OptionLabel is the text of a select option for an enum value.
func OptionLabel(value string) string {
	if label, ok := optionLabels[value]; ok {
		return label
	}
	return Title(value)
}

// EnabledLabel renders a tri-state flag: Yes, No or n/a when unknown.
func EnabledLabel(enabled *bool) string {
	switch {
	case enabled == nil:
		return notAvailable
	case *enabled:
		return "Yes"
	default:
		return "No"
	}
}
