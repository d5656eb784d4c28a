package view

import "net/url"

// Paths of the console's form actions.
const (
	PathCron         = "/cron"
	PathForm         = "/cron/form"
	PathFormCancel   = "/cron/form/cancel"
	PathNewJob       = "/cron/jobs/new"
	PathRuns         = "/cron/runs"
	PathFilter       = "/cron/filter"
	PathRefresh      = "/cron/refresh"
	PathDialogCancel = "/cron/dialog/cancel"
	PathStatic       = "/static/"
)

// Job row actions, appended to /cron/jobs/{id}/.
const (
	ActionEdit          = "edit"
	ActionDuplicate     = "duplicate"
	ActionToggle        = "toggle"
	ActionRun           = "run"
	ActionRemove        = "remove"
	ActionRemoveConfirm = "remove/confirm"
)

func JobAction(id, action string) string {
	return "/cron/jobs/" + url.PathEscape(id) + "/" + action
}
