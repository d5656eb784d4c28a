package view

import (
	"fmt"
	"time"

	"github.com/0xPuncker/cron-console/internal/joblist"
	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/0xPuncker/cron-console/pkg/types"
)

type FilterTab struct {
	Type   joblist.FilterType
	Label  string
	Active bool
}

type JobRow struct {
	ID            string
	Name          string
	Description   string
	Enabled       bool
	SessionTarget string
	Schedule      string
	Payload       string
	State         string
	Selected      bool
	ToggleLabel   string
	RunDisabled   bool
}

func (r JobRow) Action(action string) string {
	return JobAction(r.ID, action)
}

// JobList is the job collection with its search box and filter tabs.
type JobList struct {
	Empty     bool
	NoMatches bool
	Query     string
	Tabs      []FilterTab
	Rows      []JobRow
	Busy      bool
}

func NewJobList(jobs []types.Job, filter joblist.FilterType, query, runsJobID string, busy bool, loc *time.Location, now time.Time) JobList {
	counts := joblist.Count(jobs)
	list := JobList{
		Empty: len(jobs) == 0,
		Query: query,
		Busy:  busy,
	}

	for _, t := range joblist.FilterTypes {
		list.Tabs = append(list.Tabs, FilterTab{
			Type:   t,
			Label:  fmt.Sprintf("%s (%d)", present.Title(string(t)), counts.Of(t)),
			Active: t == filter,
		})
	}

	for _, job := range joblist.Filter(jobs, filter, query) {
		row := JobRow{
			ID:            job.ID,
			Name:          job.Name,
			Description:   job.Description,
			Enabled:       job.Enabled,
			SessionTarget: string(job.SessionTarget),
			Schedule:      present.FormatSchedule(job.Schedule, loc),
			Payload:       present.FormatPayload(job.Payload),
			State:         present.FormatState(job, loc, now),
			Selected:      job.ID == runsJobID,
			ToggleLabel:   "Enable",
			RunDisabled:   busy || !job.Enabled,
		}
		if job.Enabled {
			row.ToggleLabel = "Disable"
		}
		list.Rows = append(list.Rows, row)
	}
	list.NoMatches = !list.Empty && len(list.Rows) == 0

	return list
}
