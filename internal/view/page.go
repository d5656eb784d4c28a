package view

import (
	"time"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/internal/joblist"
	"github.com/0xPuncker/cron-console/pkg/types"
)

// CronProps is the full state of the cron page. The page derives everything
// it shows from it and keeps nothing between renders.
type CronProps struct {
	Loading         bool
	Status          *types.SchedulerStatus
	Jobs            []types.Job
	Error           string
	Flash           string
	Busy            bool
	Form            form.State
	Channels        []string
	ChannelLabels   map[string]string
	ChannelMeta     []types.ChannelMeta
	RunsJobID       string
	Runs            []types.RunLogEntry
	LastUpdated     *time.Time
	EditingJobID    string
	Filter          string
	FilterType      joblist.FilterType
	ConfirmRemoveID string
	Location        *time.Location
	Now             time.Time
}

type CronPage struct {
	Title     string
	Flash     string
	Scheduler SchedulerCard
	Form      CronForm
	Jobs      JobList
	Runs      RunHistory
	Dialog    ConfirmDialog
	Busy      bool
}

func NewCronPage(p CronProps) CronPage {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	return CronPage{
		Title:     "Cron Jobs",
		Flash:     p.Flash,
		Scheduler: NewSchedulerCard(p.Status, p.Loading, p.LastUpdated, loc, now),
		Form: NewCronForm(FormProps{
			Form:          p.Form,
			Channels:      p.Channels,
			ChannelLabels: p.ChannelLabels,
			ChannelMeta:   p.ChannelMeta,
			Error:         p.Error,
			Busy:          p.Busy,
			EditingJobID:  p.EditingJobID,
			Location:      loc,
			Now:           now,
		}),
		Jobs:   NewJobList(p.Jobs, p.FilterType, p.Filter, p.RunsJobID, p.Busy, loc, now),
		Runs:   NewRunHistory(p.Jobs, p.RunsJobID, p.Runs, loc),
		Dialog: removeDialog(p.Jobs, p.ConfirmRemoveID),
		Busy:   p.Busy,
	}
}

func removeDialog(jobs []types.Job, id string) ConfirmDialog {
	if id == "" {
		return ConfirmDialog{}
	}
	for _, job := range jobs {
		if job.ID != id {
			continue
		}
		return ConfirmDialog{
			Open:          true,
			Title:         "Remove job",
			Message:       "Remove \"" + job.Name + "\"? This cannot be undone.",
			Danger:        true,
			ConfirmAction: JobAction(job.ID, ActionRemoveConfirm),
			CancelAction:  PathDialogCancel,
		}
	}
	return ConfirmDialog{}
}
