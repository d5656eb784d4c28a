package view

import (
	"slices"
	"time"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/0xPuncker/cron-console/pkg/types"
)

// FormProps is everything the job editor needs to render.
type FormProps struct {
	Form          form.State
	Channels      []string
	ChannelLabels map[string]string
	ChannelMeta   []types.ChannelMeta
	Error         string
	Busy          bool
	EditingJobID  string
	Location      *time.Location
	Now           time.Time
}

// CronForm is the job editor card.
type CronForm struct {
	Title          string
	Subtitle       string
	Editing        bool
	General        []Field
	ScheduleFields []Field
	Preview        form.Preview
	PreviewNext    string
	ActionFields   []Field
	PayloadField   Field
	AgentFields    []Field
	IsolationField *Field
	Error          string
	Errors         form.Errors
	// HiddenErrors are errors of fields the current kinds do not render.
	HiddenErrors   []string
	Busy           bool
	SubmitLabel    string
	SubmitDisabled bool
}

func NewCronForm(p FormProps) CronForm {
	s := p.Form
	errs := form.Validate(s)
	preview := form.PreviewSchedule(s, p.Location, p.Now)

	f := CronForm{
		Title:          "New Job",
		Subtitle:       "Create a scheduled wakeup or agent run. Fields are checked when you leave them.",
		Editing:        p.EditingJobID != "",
		Preview:        preview,
		Error:          p.Error,
		Errors:         errs,
		Busy:           p.Busy,
		SubmitLabel:    "Add job",
		SubmitDisabled: !form.CanSubmit(errs, p.Busy),
	}
	if f.Editing {
		f.Title = "Edit Job"
		f.Subtitle = "Modify an existing scheduled job."
		f.SubmitLabel = "Update job"
	}
	if p.Busy {
		f.SubmitLabel = "Saving…"
	}
	if preview.Next != nil {
		f.PreviewNext = present.FormatMs(preview.Next.UnixMilli(), p.Location)
	}

	f.General = []Field{
		{
			Label:    "Name",
			Required: true,
			Error:    errs[form.FieldName],
			Hint:     "Descriptive name for this job",
			Control:  Control{Kind: ControlText, Name: "name", Value: s.Name, Placeholder: "e.g., Daily morning check-in"},
		},
		{
			Label:   "Description",
			Hint:    "Optional notes about this job",
			Control: Control{Kind: ControlText, Name: "description", Value: s.Description, Placeholder: "Optional description"},
		},
		{
			Label:   "Agent ID",
			Hint:    "Leave empty to use default agent",
			Control: Control{Kind: ControlText, Name: "agentId", Value: s.AgentID, Placeholder: "default"},
		},
		{
			Label:     "Enabled",
			FullWidth: true,
			Control:   Control{Kind: ControlCheckbox, Name: "enabled", Checked: s.Enabled, Caption: "Job is active and will run on schedule"},
		},
	}

	f.ScheduleFields = []Field{{
		Label: "Type",
		Error: errs[form.FieldScheduleKind],
		Control: Control{
			Kind:    ControlSelect,
			Name:    "scheduleKind",
			Options: selectOptions(stringsOf(types.ScheduleKinds), string(s.ScheduleKind), present.OptionLabel),
		},
	}}
	switch s.ScheduleKind {
	case types.ScheduleAt:
		f.ScheduleFields = append(f.ScheduleFields, Field{
			Label:    "Run at",
			Required: true,
			Error:    errs[form.FieldScheduleAt],
			Control:  Control{Kind: ControlDateTimeLocal, Name: "scheduleAt", Value: s.ScheduleAt},
		})
	case types.ScheduleEvery:
		f.ScheduleFields = append(f.ScheduleFields,
			Field{
				Label:    "Every",
				Required: true,
				Error:    errs[form.FieldEveryAmount],
				Control:  Control{Kind: ControlNumber, Name: "everyAmount", Value: s.EveryAmount, Min: "1", Placeholder: "30"},
			},
			Field{
				Label: "Unit",
				Control: Control{
					Kind:    ControlSelect,
					Name:    "everyUnit",
					Options: selectOptions(stringsOf(types.EveryUnits), string(s.EveryUnit), present.OptionLabel),
				},
			},
		)
	case types.ScheduleCron:
		examples := make([]Option, 0, len(types.CronExamples))
		for _, ex := range types.CronExamples {
			examples = append(examples, Option{Value: ex.Expr, Label: ex.Description})
		}
		zones := append([]Option{{Value: "", Label: "Local", Selected: s.CronTZ == ""}},
			selectOptions(timezoneOptions(s.CronTZ), s.CronTZ, func(tz string) string { return tz })...)
		f.ScheduleFields = append(f.ScheduleFields,
			Field{
				Label:    "Expression",
				Required: true,
				Error:    errs[form.FieldCronExpr],
				Hint:     "Cron expression guide",
				HintURL:  types.CronExpressionGuide,
				Control: Control{
					Kind:        ControlText,
					Name:        "cronExpr",
					Value:       s.CronExpr,
					Placeholder: "0 9 * * *",
					List:        "cron-examples",
					ListOptions: examples,
				},
			},
			Field{
				Label:   "Timezone",
				Hint:    "Optional: defaults to local",
				Control: Control{Kind: ControlSelect, Name: "cronTz", Options: zones},
			},
		)
	}

	f.ActionFields = []Field{
		{
			Label: "Session",
			Hint:  types.SessionTargetHints[s.SessionTarget],
			Control: Control{
				Kind:    ControlSelect,
				Name:    "sessionTarget",
				Options: selectOptions(stringsOf(types.SessionTargets), string(s.SessionTarget), present.OptionLabel),
			},
		},
		{
			Label: "Wake mode",
			Hint:  types.WakeModeHints[s.WakeMode],
			Control: Control{
				Kind:    ControlSelect,
				Name:    "wakeMode",
				Options: selectOptions(stringsOf(types.WakeModes), string(s.WakeMode), present.OptionLabel),
			},
		},
		{
			Label: "Payload type",
			Error: errs[form.FieldPayloadKind],
			Hint:  types.PayloadKindHints[s.PayloadKind],
			Control: Control{
				Kind:    ControlSelect,
				Name:    "payloadKind",
				Options: selectOptions(stringsOf(types.PayloadKinds), string(s.PayloadKind), present.OptionLabel),
			},
		},
	}

	payload := Field{
		Label:    "Agent message",
		Required: true,
		Error:    errs[form.FieldPayloadText],
		Control:  Control{Kind: ControlTextarea, Name: "payloadText", Value: s.PayloadText, Rows: 4, Placeholder: "Message to send to the agent"},
	}
	if s.PayloadKind == types.PayloadSystemEvent {
		payload.Label = "System text"
		payload.Control.Placeholder = "e.g., trigger-daily-report"
	}
	f.PayloadField = payload

	if s.PayloadKind == types.PayloadAgentTurn {
		channel := s.Channel
		if channel == "" {
			channel = types.LastChannel
		}
		channels := form.ChannelOptions(p.Channels, s.Channel)
		f.AgentFields = []Field{
			{
				Label:   "Deliver response",
				Hint:    types.DeliverHint,
				Control: Control{Kind: ControlCheckbox, Name: "deliver", Checked: s.Deliver, Caption: "Deliver response back to channel"},
			},
			{
				Label: "Channel",
				Control: Control{
					Kind: ControlSelect,
					Name: "channel",
					Options: selectOptions(channels, channel, func(id string) string {
						return form.ChannelLabel(id, p.ChannelMeta, p.ChannelLabels)
					}),
				},
			},
			{
				Label:   "To",
				Error:   errs[form.FieldTo],
				Hint:    "Phone number or chat ID",
				Control: Control{Kind: ControlText, Name: "to", Value: s.To, Placeholder: "+1555… or chat id"},
			},
			{
				Label:   "Timeout (seconds)",
				Control: Control{Kind: ControlNumber, Name: "timeoutSeconds", Value: s.TimeoutSeconds, Min: "1", Placeholder: "300"},
			},
		}
		if s.SessionTarget == types.SessionIsolated {
			f.IsolationField = &Field{
				Label:   "Post to main prefix",
				Hint:    "Optional prefix for messages posted to main session",
				Control: Control{Kind: ControlText, Name: "postToMainPrefix", Value: s.PostToMainPrefix, Placeholder: "[Cron] "},
			}
		}
	}

	f.HiddenErrors = hiddenErrors(errs, f.fields())
	return f
}

func (f CronForm) fields() []Field {
	fields := append([]Field{}, f.General...)
	fields = append(fields, f.ScheduleFields...)
	fields = append(fields, f.ActionFields...)
	fields = append(fields, f.PayloadField)
	fields = append(fields, f.AgentFields...)
	if f.IsolationField != nil {
		fields = append(fields, *f.IsolationField)
	}
	return fields
}

func hiddenErrors(errs form.Errors, rendered []Field) []string {
	shown := make(map[string]bool, len(rendered))
	for _, field := range rendered {
		shown[field.Control.Name] = true
	}

	var hidden []string
	for _, name := range []string{
		form.FieldName, form.FieldScheduleKind, form.FieldScheduleAt, form.FieldEveryAmount,
		form.FieldCronExpr, form.FieldPayloadKind, form.FieldPayloadText, form.FieldTo,
	} {
		if msg, ok := errs[name]; ok && !shown[name] {
			hidden = append(hidden, msg)
		}
	}
	return hidden
}

// timezoneOptions lists the known zones plus current when it is set and not one of them.
func timezoneOptions(current string) []string {
	if current == "" || slices.Contains(types.Timezones, current) {
		return types.Timezones
	}
	return append(slices.Clone(types.Timezones), current)
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
