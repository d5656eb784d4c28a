package api

import (
	"net/url"
	"strconv"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/pkg/types"
)

// lastValue returns the last submitted value of key. Checkboxes post a hidden
// "false" before the checkbox itself, so the last value wins.
func lastValue(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

func stringField(values url.Values, key string) *string {
	v, ok := lastValue(values, key)
	if !ok {
		return nil
	}
	return &v
}

func boolField(values url.Values, key string) *bool {
	v, ok := lastValue(values, key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		b = v == "on"
	}
	return &b
}

func enumField[T ~string](values url.Values, key string) *T {
	v, ok := lastValue(values, key)
	if !ok {
		return nil
	}
	t := T(v)
	return &t
}

// patchFromForm converts the posted job form into a Patch. Fields the browser
// did not send stay nil, so hidden sections keep their values.
func patchFromForm(values url.Values) form.Patch {
	return form.Patch{
		Name:             stringField(values, "name"),
		Description:      stringField(values, "description"),
		AgentID:          stringField(values, "agentId"),
		Enabled:          boolField(values, "enabled"),
		ScheduleKind:     enumField[types.ScheduleKind](values, "scheduleKind"),
		ScheduleAt:       stringField(values, "scheduleAt"),
		EveryAmount:      stringField(values, "everyAmount"),
		EveryUnit:        enumField[types.EveryUnit](values, "everyUnit"),
		CronExpr:         stringField(values, "cronExpr"),
		CronTZ:           stringField(values, "cronTz"),
		SessionTarget:    enumField[types.SessionTarget](values, "sessionTarget"),
		WakeMode:         enumField[types.WakeMode](values, "wakeMode"),
		PayloadKind:      enumField[types.PayloadKind](values, "payloadKind"),
		PayloadText:      stringField(values, "payloadText"),
		Deliver:          boolField(values, "deliver"),
		Channel:          stringField(values, "channel"),
		To:               stringField(values, "to"),
		TimeoutSeconds:   stringField(values, "timeoutSeconds"),
		PostToMainPrefix: stringField(values, "postToMainPrefix"),
	}
}
