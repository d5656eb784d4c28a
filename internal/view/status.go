package view

import (
	"strconv"
	"time"

	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/0xPuncker/cron-console/pkg/types"
)

// SchedulerCard is the gateway scheduler summary.
type SchedulerCard struct {
	Enabled  string
	Jobs     string
	NextWake string
	Loading  bool
	Updated  string
}

func NewSchedulerCard(status *types.SchedulerStatus, loading bool, lastUpdated *time.Time, loc *time.Location, now time.Time) SchedulerCard {
	card := SchedulerCard{
		Enabled:  present.EnabledLabel(nil),
		Jobs:     "n/a",
		NextWake: present.FormatNextRun(nil, loc, now),
		Loading:  loading,
	}
	if status != nil {
		enabled := status.Enabled
		card.Enabled = present.EnabledLabel(&enabled)
		card.Jobs = strconv.Itoa(status.Jobs)
		card.NextWake = present.FormatNextRun(status.NextWakeAtMs, loc, now)
	}
	if lastUpdated != nil && !lastUpdated.IsZero() {
		card.Updated = present.FormatAgo(lastUpdated.UnixMilli(), now)
	}
	return card
}
