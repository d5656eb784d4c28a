package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/0xPuncker/cron-console/pkg/types"
)

type PreviewStatus string

const (
	PreviewSuccess PreviewStatus = "success"
	PreviewError   PreviewStatus = "error"
	PreviewNeutral PreviewStatus = ""
)

// Layouts accepted for the run-at input. Browsers send datetime-local values
// without seconds, API clients may send seconds or a full RFC 3339 time.
var runAtLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Preview is the one-line description of the schedule shown under the form.
type Preview struct {
	Text   string        `json:"text"`
	Status PreviewStatus `json:"status"`
	// Next is the next fire time of a cron expression when it can be parsed.
	// It is advisory and never changes Text or Status.
	Next *time.Time `json:"next,omitempty"`
}

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// PreviewSchedule describes the schedule currently entered in the form. Times are
// shown in loc; now anchors the advisory next cron run.
func PreviewSchedule(s State, loc *time.Location, now time.Time) Preview {
	if loc == nil {
		loc = time.Local
	}

	switch s.ScheduleKind {
	case types.ScheduleAt:
		at, err := ParseRunAt(s.ScheduleAt, loc)
		if err != nil {
			return Preview{Text: "Invalid date/time", Status: PreviewError}
		}
		return Preview{
			Text:   "Next run: " + present.FormatMs(at.UnixMilli(), loc),
			Status: PreviewSuccess,
		}
	case types.ScheduleEvery:
		amount, ok := parseAmount(s.EveryAmount)
		if _, valid := IntervalMs(s.EveryAmount, s.EveryUnit); !ok || !valid {
			return Preview{Text: "Invalid interval", Status: PreviewError}
		}
		return Preview{
			Text:   fmt.Sprintf("Every %s %s", strconv.FormatFloat(amount, 'f', -1, 64), s.EveryUnit),
			Status: PreviewSuccess,
		}
	case types.ScheduleCron:
		if strings.TrimSpace(s.CronExpr) != "" {
			return Preview{
				Text:   "Schedule: " + s.CronExpr,
				Status: PreviewSuccess,
				Next:   NextCronRun(s.CronExpr, s.CronTZ, now.In(loc)),
			}
		}
	}

	return Preview{Text: "Configure schedule to see preview", Status: PreviewNeutral}
}

// ParseRunAt reads a run-at value in loc.
func ParseRunAt(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("run-at time is empty")
	}
	for _, layout := range runAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid run-at time %q", raw)
}

// NextCronRun returns the first fire time after now, or nil when the expression
// cannot be parsed.
func NextCronRun(expr, tz string, now time.Time) *time.Time {
	spec := strings.TrimSpace(expr)
	if tz = strings.TrimSpace(tz); tz != "" {
		spec = "CRON_TZ=" + tz + " " + spec
	}
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil
	}
	next := schedule.Next(now)
	if next.IsZero() {
		return nil
	}
	return &next
}
