package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiPath = "/api/v1"

func (c *testConsole) getJSON(path string, out any) int {
	c.t.Helper()
	resp, err := c.client.Get(c.server.URL + path)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	assert.Equal(c.t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	c := setupConsole(t)

	var response HealthResponse
	code := c.getJSON(apiPath+"/health", &response)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "closed", response.Breaker)
	assert.False(t, response.Scheduler)
}

func TestGetStatus(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	var response map[string]any
	code := c.getJSON(apiPath+"/status", &response)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, response["enabled"])
	assert.Equal(t, 1.0, response["jobs"])
}

func TestListJobsWithFilter(t *testing.T) {
	disabled := testutil.SampleJob("b2", "Evening wrap-up")
	disabled.Enabled = false
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"), disabled)

	var response JobsResponse
	code := c.getJSON(apiPath+"/jobs?filter=disabled", &response)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, response.Jobs, 1)
	assert.Equal(t, "b2", response.Jobs[0].ID)
	assert.Equal(t, 2, response.Counts.All)
	assert.Equal(t, 1, response.Counts.Enabled)

	code = c.getJSON(apiPath+"/jobs?q=MORNING", &response)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, response.Jobs, 1)
	assert.Equal(t, "a1", response.Jobs[0].ID)
}

func TestGetJobRuns(t *testing.T) {
	c := setupConsole(t, testutil.SampleJob("a1", "Morning digest"))

	var response RunsResponse
	code := c.getJSON(apiPath+"/jobs/a1/runs", &response)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a1", response.JobID)
	assert.NotNil(t, response.Entries)
	assert.Empty(t, response.Entries)
}

func TestGatewayErrorsMapToStatusCodes(t *testing.T) {
	c := setupConsole(t)
	c.fake.SetDown(true)

	var response map[string]string
	code := c.getJSON(apiPath+"/status", &response)

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, response["error"], "gateway unavailable")
	assert.NotEmpty(t, response["timestamp"])
}

func TestValidateForm(t *testing.T) {
	c := setupConsole(t)

	resp, err := c.client.Post(c.server.URL+apiPath+"/form/validate", "application/json",
		strings.NewReader(`{"name":"","scheduleKind":"every","everyAmount":"-2","payloadText":"x","channel":"signal"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response ValidateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))

	assert.Equal(t, "Name is required", response.Errors[form.FieldName])
	assert.Equal(t, "Valid interval required", response.Errors[form.FieldEveryAmount])
	assert.False(t, response.CanSubmit)
	assert.Equal(t, form.PreviewError, response.Preview.Status)
	assert.Equal(t, []string{"last", "telegram", "signal"}, response.ChannelOptions)
}

func TestValidateFormValid(t *testing.T) {
	c := setupConsole(t)

	resp, err := c.client.Post(c.server.URL+apiPath+"/form/validate", "application/json",
		strings.NewReader(`{"name":"Ping","payloadText":"ping"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var response ValidateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))

	assert.Empty(t, response.Errors)
	assert.True(t, response.CanSubmit)
	assert.Equal(t, "Every 30 minutes", response.Preview.Text)
}

func TestValidateFormBadBody(t *testing.T) {
	c := setupConsole(t)

	resp, err := c.client.Post(c.server.URL+apiPath+"/form/validate", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	c := setupConsole(t)

	resp, err := c.client.Get(c.server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStaticFiles(t *testing.T) {
	c := setupConsole(t)

	resp, err := c.client.Get(c.server.URL + "/static/console.js")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	c := setupConsole(t)

	req, err := http.NewRequest(http.MethodOptions, c.server.URL+apiPath+"/jobs", nil)
	require.NoError(t, err)
	resp, err := c.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
