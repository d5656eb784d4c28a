package api

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/0xPuncker/cron-console/internal/notifications"
	"github.com/0xPuncker/cron-console/internal/testutil"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditEvent struct {
	action notifications.Action
	jobID  string
}

type recordingAuditor struct {
	events []auditEvent
}

func (a *recordingAuditor) JobChanged(action notifications.Action, job types.Job, actor string) {
	a.events = append(a.events, auditEvent{action: action, jobID: job.ID})
}

type testConsole struct {
	t       *testing.T
	fake    *testutil.FakeGateway
	handler *Handler
	auditor *recordingAuditor
	server  *httptest.Server
	client  *http.Client
}

func setupConsole(t *testing.T, jobs ...types.Job) *testConsole {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fake := testutil.NewFakeGateway(t, jobs...)
	client := gateway.NewClient(gateway.NewHTTPTransport(fake.URL(), "", 2*time.Second), gateway.Options{}, logger, nil)
	t.Cleanup(func() { client.Close() })

	cfg := config.DefaultConfig()
	cfg.UI.Timezone = "UTC"

	auditor := &recordingAuditor{}
	handler, err := NewHandler(Deps{
		Gateway: client,
		Logger:  logger,
		Config:  cfg,
		Channels: &config.ChannelConfig{Channels: []types.ChannelMeta{
			{ID: "telegram", Label: "Telegram"},
		}},
		Auditor: auditor,
	})
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(handler, prometheus.NewRegistry()))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testConsole{
		t:       t,
		fake:    fake,
		handler: handler,
		auditor: auditor,
		server:  server,
		client:  &http.Client{Jar: jar},
	}
}

func (c *testConsole) document(resp *http.Response) *goquery.Document {
	c.t.Helper()
	defer resp.Body.Close()
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(c.t, err)
	return doc
}

func (c *testConsole) get(path string) *goquery.Document {
	c.t.Helper()
	resp, err := c.client.Get(c.server.URL + path)
	require.NoError(c.t, err)
	return c.document(resp)
}

// post submits a form action and follows the redirect back to the page.
func (c *testConsole) post(path string, values url.Values) *goquery.Document {
	c.t.Helper()
	resp, err := c.client.PostForm(c.server.URL+path, values)
	require.NoError(c.t, err)
	require.Equal(c.t, "/cron", resp.Request.URL.Path)
	return c.document(resp)
}

func (c *testConsole) session() *Session {
	c.t.Helper()
	u, err := url.Parse(c.server.URL)
	require.NoError(c.t, err)
	for _, cookie := range c.client.Jar.Cookies(u) {
		if cookie.Name == SessionCookie {
			cached, found := c.handler.sessions.cache.Get(cookie.Value)
			require.True(c.t, found)
			return cached.(*Session)
		}
	}
	c.t.Fatal("no session cookie")
	return nil
}

func rowIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find(".list-item-clickable").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-job-id")
		ids = append(ids, id)
	})
	return ids
}

func createJobForm(name string) url.Values {
	return url.Values{
		"op":           {"submit"},
		"name":         {name},
		"enabled":      {"false", "true"},
		"scheduleKind": {"every"},
		"everyAmount":  {"15"},
		"everyUnit":    {"minutes"},
		"payloadKind":  {"systemEvent"},
		"payloadText":  {"hello"},
	}
}

func TestCronPageRendersJobs(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"), testutil.SampleJob("b2", "Evening wrap-up"))

	resp, err := c.client.Get(c.server.URL + "/cron")
	require.NoError(t, err)
	var hasCookie bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookie {
			hasCookie = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, hasCookie)
	doc := c.document(resp)

	assert.Equal(t, "Cron Jobs", doc.Find("title").Text())
	assert.Equal(t, []string{"a1", "b2"}, rowIDs(doc))
	assert.Equal(t, "Yes", strings.TrimSpace(doc.Find(`[data-stat="enabled"]`).Text()))
	assert.Equal(t, "2", strings.TrimSpace(doc.Find(`[data-stat="jobs"]`).Text()))
	assert.Contains(t, doc.Find(".run-history").Text(), "Select a job to inspect run history.")
	assert.Contains(t, doc.Find(".scheduler-status").Text(), "Updated")
}

func TestRootRedirectsToCron(t *testing.T) {
	c := setupConsole(t)
	doc := c.get("/")
	assert.Equal(t, "Cron Jobs", doc.Find("title").Text())
}

func TestCreateJob(t *testing.T) {
	c := setupConsole(t)

	doc := c.post("/cron/form", createJobForm("Stand-up reminder"))

	jobs := c.fake.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "Stand-up reminder", jobs[0].Name)
	assert.True(t, jobs[0].Enabled)
	assert.Equal(t, types.EverySchedule{Amount: 15, Unit: types.UnitMinutes}, jobs[0].Schedule)

	assert.Equal(t, `Job "Stand-up reminder" created`, strings.TrimSpace(doc.Find(".flash").Text()))
	assert.Equal(t, []string{jobs[0].ID}, rowIDs(doc))

	name, _ := doc.Find("#field-name").Attr("value")
	assert.Empty(t, name)

	require.Len(t, c.auditor.events, 1)
	assert.Equal(t, notifications.ActionAdd, c.auditor.events[0].action)

	// The flash is shown once.
	doc = c.get("/cron")
	assert.Zero(t, doc.Find(".flash").Length())
}

func TestSubmitInvalidFormSkipsGateway(t *testing.T) {
	c := setupConsole(t)

	values := createJobForm("")
	doc := c.post("/cron/form", values)

	assert.Equal(t, 0, c.fake.Calls(gateway.MethodAdd))
	assert.Equal(t, "Name is required", doc.Find("#field-name-error").Text())
	_, disabled := doc.Find(`button[name="op"][value="submit"]`).Attr("disabled")
	assert.True(t, disabled)

	amount, _ := doc.Find("#field-every-amount").Attr("value")
	assert.Equal(t, "15", amount)
}

func TestPatchSwitchesScheduleFields(t *testing.T) {
	c := setupConsole(t)

	doc := c.post("/cron/form", url.Values{
		"op":           {"patch"},
		"name":         {"Weekly"},
		"scheduleKind": {"cron"},
	})

	assert.Equal(t, 1, doc.Find("#field-cron-expr").Length())
	assert.Zero(t, doc.Find("#field-every-amount").Length())
	assert.Contains(t, doc.Find(".schedule-preview__value").Text(), "Schedule: 0 7 * * *")

	name, _ := doc.Find("#field-name").Attr("value")
	assert.Equal(t, "Weekly", name)
	assert.Equal(t, 0, c.fake.Calls(gateway.MethodAdd))
}

func TestEditAndUpdateJob(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	doc := c.post("/cron/jobs/a1/edit", nil)
	name, _ := doc.Find("#field-name").Attr("value")
	assert.Equal(t, "Morning digest", name)
	assert.Equal(t, 1, doc.Find(`form[action="/cron/form/cancel"]`).Length())

	doc = c.post("/cron/form", url.Values{"op": {"submit"}, "name": {"Renamed digest"}})

	job, ok := c.fake.Job("a1")
	require.True(t, ok)
	assert.Equal(t, "Renamed digest", job.Name)
	assert.Equal(t, types.CronSchedule{Expr: "0 9 * * *"}, job.Schedule)
	assert.Equal(t, `Job "Renamed digest" updated`, strings.TrimSpace(doc.Find(".flash").Text()))
	assert.Equal(t, "", c.session().State().EditingJobID)
	assert.Equal(t, 0, c.fake.Calls(gateway.MethodAdd))
}

func TestEditUnknownJob(t *testing.T) {
	c := setupConsole(t)

	doc := c.post("/cron/jobs/nope/edit", nil)
	assert.Contains(t, doc.Find(".error-banner").Text(), "Failed to load job")
}

func TestCancelEditResetsForm(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	c.post("/cron/jobs/a1/edit", nil)
	doc := c.post("/cron/form/cancel", nil)

	name, _ := doc.Find("#field-name").Attr("value")
	assert.Empty(t, name)
	assert.Empty(t, c.session().State().EditingJobID)
}

func TestDuplicateJob(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	doc := c.post("/cron/jobs/a1/duplicate", nil)
	name, _ := doc.Find("#field-name").Attr("value")
	assert.Equal(t, "Morning digest (copy)", name)
	assert.Empty(t, c.session().State().EditingJobID)

	c.post("/cron/form", url.Values{"op": {"submit"}})
	assert.Len(t, c.fake.Jobs(), 2)
}

func TestToggleJob(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	doc := c.post("/cron/jobs/a1/toggle", url.Values{"enabled": {"false"}})

	job, _ := c.fake.Job("a1")
	assert.False(t, job.Enabled)
	assert.Equal(t, `Job "Morning digest" disabled`, strings.TrimSpace(doc.Find(".flash").Text()))
	require.Len(t, c.auditor.events, 1)
	assert.Equal(t, notifications.ActionDisable, c.auditor.events[0].action)

	_, runDisabled := doc.Find(`form[action="/cron/jobs/a1/run"] button`).Attr("disabled")
	assert.True(t, runDisabled)
}

func TestRunJob(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	doc := c.post("/cron/jobs/a1/run", nil)

	assert.Equal(t, 1, c.fake.Calls(gateway.MethodRun))
	assert.Equal(t, `Job "Morning digest" triggered`, strings.TrimSpace(doc.Find(".flash").Text()))
	assert.Equal(t, 1, doc.Find(".run-entry.run-success").Length())
}

func TestRunDisabledJobIsRejected(t *testing.T) {
	job := testutil.SampleJob("a1", "Morning digest")
	job.Enabled = false
	c := setupConsole(t, job)

	doc := c.post("/cron/jobs/a1/run", nil)

	assert.Equal(t, 0, c.fake.Calls(gateway.MethodRun))
	assert.Contains(t, doc.Find(".error-banner").Text(), "is disabled")
}

func TestRemoveJobNeedsConfirmation(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	doc := c.post("/cron/jobs/a1/remove", nil)
	assert.Equal(t, 1, doc.Find(".modal").Length())
	assert.Equal(t, 0, c.fake.Calls(gateway.MethodRemove))
	assert.Equal(t, "Delete", strings.TrimSpace(doc.Find(`[data-dialog="confirm"]`).Text()))

	doc = c.post("/cron/jobs/a1/remove/confirm", nil)
	assert.Empty(t, c.fake.Jobs())
	assert.Zero(t, doc.Find(".modal").Length())
	assert.Equal(t, "Job removed", strings.TrimSpace(doc.Find(".flash").Text()))
	require.Len(t, c.auditor.events, 1)
	assert.Equal(t, auditEvent{action: notifications.ActionRemove, jobID: "a1"}, c.auditor.events[0])
}

func TestRemoveConfirmWithoutDialog(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	doc := c.post("/cron/jobs/a1/remove/confirm", nil)

	assert.Len(t, c.fake.Jobs(), 1)
	assert.Contains(t, doc.Find(".error-banner").Text(), "Removal was not confirmed")
}

func TestCancelDialog(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	c.post("/cron/jobs/a1/remove", nil)
	doc := c.post("/cron/dialog/cancel", nil)

	assert.Zero(t, doc.Find(".modal").Length())
	assert.Len(t, c.fake.Jobs(), 1)
}

func TestSelectRuns(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))
	duration := int64(42)
	c.fake.AddRuns("a1",
		types.RunLogEntry{Ts: time.Now().UnixMilli(), JobID: "a1", Status: types.RunError, Error: "boom", DurationMs: &duration},
	)

	doc := c.post("/cron/runs", url.Values{"job_id": {"a1"}})
	assert.Contains(t, doc.Find(".run-history .card-sub").Text(), "Morning digest")
	assert.Equal(t, 1, doc.Find(".run-entry.run-error").Length())
	assert.Contains(t, doc.Find(".run-entry").Text(), "42ms")
	assert.Equal(t, 1, doc.Find(".list-item-selected").Length())

	doc = c.post("/cron/runs", url.Values{"job_id": {""}})
	assert.Contains(t, doc.Find(".run-history").Text(), "Select a job to inspect run history.")
}

func TestFilterJobs(t *testing.T) {
	disabled := testutil.SampleJob("b2", "Evening wrap-up")
	disabled.Enabled = false
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"), disabled)

	doc := c.post("/cron/filter", url.Values{"q": {"DIGEST"}})
	assert.Equal(t, []string{"a1"}, rowIDs(doc))
	q, _ := doc.Find(`input[name="q"]`).Attr("value")
	assert.Equal(t, "DIGEST", q)

	doc = c.post("/cron/filter", url.Values{"q": {""}, "type": {"disabled"}})
	assert.Equal(t, []string{"b2"}, rowIDs(doc))

	doc = c.post("/cron/filter", url.Values{"q": {"digest"}})
	assert.Contains(t, doc.Text(), "No matching jobs.")
}

func TestRefreshInvalidatesCache(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	c.get("/cron")
	c.get("/cron")
	assert.Equal(t, 1, c.fake.Calls(gateway.MethodList))

	c.post("/cron/refresh", nil)
	assert.Equal(t, 2, c.fake.Calls(gateway.MethodList))
}

func TestGatewayDownShowsAlert(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))
	c.fake.SetDown(true)

	doc := c.get("/cron")

	assert.Contains(t, doc.Find(`.error-banner[role="alert"]`).Text(), "Failed to load jobs")
	assert.Equal(t, "n/a", strings.TrimSpace(doc.Find(`[data-stat="enabled"]`).Text()))
}

func TestSaveFailureIsShown(t *testing.T) {
	c := setupConsole(t)
	c.get("/cron")
	c.fake.SetDown(true)

	doc := c.post("/cron/form", createJobForm("Stand-up reminder"))

	assert.Contains(t, doc.Find(".error-banner").Text(), "Failed to save job")
	name, _ := doc.Find("#field-name").Attr("value")
	assert.Equal(t, "Stand-up reminder", name)
}

func TestBusySessionRejectsMutation(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))
	c.get("/cron")

	sess := c.session()
	require.True(t, sess.TryBegin())
	defer sess.End()

	resp, err := c.client.Get(c.server.URL + "/cron")
	require.NoError(t, err)
	doc := c.document(resp)
	_, disabled := doc.Find(`form[action="/cron/jobs/a1/edit"] button`).Attr("disabled")
	assert.True(t, disabled)

	noRedirect := *c.client
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err = noRedirect.PostForm(c.server.URL+"/cron/jobs/a1/run", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/cron", resp.Header.Get("Location"))
	assert.Equal(t, 0, c.fake.Calls(gateway.MethodRun))
	assert.Equal(t, ErrBusyMessage, sess.State().Error)
}

func TestNewHandlerRegistersMaintenanceTasks(t *testing.T) {
	c := setupConsole(t)

	tasks := c.handler.Scheduler.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "prune-sessions", tasks[0].Name)
	assert.Equal(t, "refresh-gateway", tasks[1].Name)

	require.NoError(t, c.handler.Scheduler.RunNow("refresh-gateway"))
	assert.NotNil(t, c.handler.updatedAt())
}
