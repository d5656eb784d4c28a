package view

import (
	"time"

	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/0xPuncker/cron-console/pkg/types"
)

type RunRow struct {
	Status   string
	Class    types.RunClass
	Time     string
	Duration string
	Summary  string
	Error    string
}

// RunHistory is the run log panel of the selected job. It is closed when no
// job is selected or the selected id is not in the list.
type RunHistory struct {
	Open    bool
	JobID   string
	JobName string
	Rows    []RunRow
}

func NewRunHistory(jobs []types.Job, runsJobID string, runs []types.RunLogEntry, loc *time.Location) RunHistory {
	if runsJobID == "" {
		return RunHistory{}
	}

	var selected *types.Job
	for i := range jobs {
		if jobs[i].ID == runsJobID {
			selected = &jobs[i]
			break
		}
	}
	if selected == nil {
		return RunHistory{}
	}

	history := RunHistory{
		Open:    true,
		JobID:   selected.ID,
		JobName: selected.Name,
		Rows:    make([]RunRow, 0, len(runs)),
	}
	for _, entry := range runs {
		history.Rows = append(history.Rows, RunRow{
			Status:   string(entry.Status),
			Class:    entry.Class(),
			Time:     present.FormatMs(entry.Ts, loc),
			Duration: present.FormatRunDuration(entry),
			Summary:  entry.Summary,
			Error:    entry.Error,
		})
	}
	return history
}
