package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Action string

const (
	ActionAdd     Action = "add"
	ActionUpdate  Action = "update"
	ActionRemove  Action = "remove"
	ActionRun     Action = "run"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// AuditNotifier posts a Slack message for every job mutation made through the console.
type AuditNotifier struct {
	slack  *SlackService
	logger *logrus.Logger
	loc    *time.Location
}

func NewAuditNotifier(slack *SlackService, logger *logrus.Logger, loc *time.Location) *AuditNotifier {
	if loc == nil {
		loc = time.Local
	}
	return &AuditNotifier{
		slack:  slack,
		logger: logger,
		loc:    loc,
	}
}

// JobChanged sends the audit message in the background. Delivery errors are only logged.
func (n *AuditNotifier) JobChanged(action Action, job types.Job, actor string) {
	if n == nil || n.slack == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Send(ctx, action, job, actor); err != nil {
			n.logger.WithFields(logrus.Fields{
				"action": action,
				"job_id": job.ID,
				"error":  err.Error(),
			}).Warn("Failed to send audit notification")
		}
	}()
}

func (n *AuditNotifier) Send(ctx context.Context, action Action, job types.Job, actor string) error {
	return n.slack.SendSlackMessage(ctx, n.formatJobMessage(action, job, actor))
}

func (n *AuditNotifier) formatJobMessage(action Action, job types.Job, actor string) *SlackMessage {
	var color string
	var icon string

	switch action {
	case ActionAdd, ActionEnable:
		color = "good"
		icon = "✅"
	case ActionRemove:
		color = "danger"
		icon = "🗑️"
	case ActionDisable:
		color = "warning"
		icon = "⏸️"
	case ActionRun:
		color = "#439FE0"
		icon = "🚀"
	default:
		color = "#808080"
		icon = "✏️"
	}

	name := job.Name
	if name == "" {
		name = job.ID
	}

	fields := []Field{
		{
			Title: "Job",
			Value: name,
			Short: true,
		},
		{
			Title: "Action",
			Value: cases.Title(language.English).String(string(action)),
			Short: true,
		},
	}

	if job.Schedule != nil {
		fields = append(fields, Field{
			Title: "Schedule",
			Value: present.FormatSchedule(job.Schedule, n.loc),
			Short: true,
		})
	}

	if actor != "" {
		fields = append(fields, Field{
			Title: "Session",
			Value: actor,
			Short: true,
		})
	}

	return &SlackMessage{
		Text: fmt.Sprintf("%s Cron job %s", icon, pastTense(action)),
		Attachments: []Attachment{
			{
				Color:  color,
				Fields: fields,
				Footer: fmt.Sprintf("Job ID: %s", job.ID),
				Ts:     time.Now().Unix(),
			},
		},
	}
}

func pastTense(action Action) string {
	switch action {
	case ActionAdd:
		return "created"
	case ActionUpdate:
		return "updated"
	case ActionRemove:
		return "removed"
	case ActionRun:
		return "triggered"
	case ActionEnable:
		return "enabled"
	case ActionDisable:
		return "disabled"
	default:
		return string(action)
	}
}
