package present

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/0xPuncker/cron-console/pkg/types"
)

// DateTimeLayout is used for every absolute time shown in the console.
const DateTimeLayout = "1/2/2006, 3:04:05 PM"

const notAvailable = "n/a"

// FormatMs renders a unix millisecond timestamp in loc.
func FormatMs(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(DateTimeLayout)
}

// FormatAgo renders the distance between ms and now, e.g. "3 minutes ago".
func FormatAgo(ms int64, now time.Time) string {
	then := time.UnixMilli(ms)
	if d := now.Sub(then); d >= 0 && d < time.Second {
		return "just now"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

// FormatDuration renders a countdown such as "2 hours, 5 minutes".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "Past due"
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%d days, %d hours", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// FormatNextRun renders an optional upcoming time with its countdown.
func FormatNextRun(ms *int64, loc *time.Location, now time.Time) string {
	if ms == nil {
		return notAvailable
	}
	remaining := time.UnixMilli(*ms).Sub(now)
	if remaining >= 0 {
		return fmt.Sprintf("%s (in %s)", FormatMs(*ms, loc), FormatDuration(remaining))
	}
	return fmt.Sprintf("%s (%s)", FormatMs(*ms, loc), FormatDuration(remaining))
}

// FormatSchedule renders a schedule for the job list.
func FormatSchedule(s types.Schedule, loc *time.Location) string {
	switch v := s.(type) {
	case types.EverySchedule:
		return fmt.Sprintf("Every %d %s", v.Amount, unitName(v.Amount, v.Unit))
	case types.AtSchedule:
		return "At " + FormatMs(v.At.UnixMilli(), loc)
	case types.CronSchedule:
		if v.TZ != "" {
			return fmt.Sprintf("Cron %s (%s)", v.Expr, v.TZ)
		}
		return "Cron " + v.Expr
	case nil:
		return notAvailable
	default:
		return fmt.Sprintf("Unknown schedule %s", s.Kind())
	}
}

func unitName(amount int64, unit types.EveryUnit) string {
	if amount == 1 {
		return strings.TrimSuffix(string(unit), "s")
	}
	return string(unit)
}

// FormatPayload renders what a job does when it fires.
func FormatPayload(p types.Payload) string {
	switch v := p.(type) {
	case types.SystemEventPayload:
		return "System: " + v.Text
	case types.AgentTurnPayload:
		text := "Agent: " + v.Message
		if v.Deliver {
			channel := v.Channel
			if channel == "" {
				channel = types.LastChannel
			}
			text += fmt.Sprintf(" (deliver via %s to %s)", channel, v.To)
		}
		return text
	case nil:
		return notAvailable
	default:
		return fmt.Sprintf("Unknown payload %s", p.Kind())
	}
}

// FormatState summarises the runtime state of a job in one line.
func FormatState(job types.Job, loc *time.Location, now time.Time) string {
	parts := []string{}
	st := job.State

	if st.RunningAtMs != nil {
		parts = append(parts, "Running since "+FormatAgo(*st.RunningAtMs, now))
	}
	if job.Enabled {
		parts = append(parts, "Next "+FormatNextRun(st.NextRunAtMs, loc, now))
	} else {
		parts = append(parts, "Paused")
	}
	if st.LastRunAtMs != nil {
		last := "Last " + FormatAgo(*st.LastRunAtMs, now)
		if st.LastStatus != "" {
			last += " (" + st.LastStatus + ")"
		}
		parts = append(parts, last)
	}
	if st.LastError != "" {
		parts = append(parts, "Error: "+st.LastError)
	}

	return strings.Join(parts, " · ")
}

// FormatRunDuration renders the duration column of the run history.
func FormatRunDuration(entry types.RunLogEntry) string {
	return fmt.Sprintf("%dms", entry.Duration())
}
