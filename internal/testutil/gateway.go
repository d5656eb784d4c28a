package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/0xPuncker/cron-console/pkg/types"
)

// FakeGateway is an in-memory cron service speaking the gateway's HTTP and
// WebSocket RPC protocols.
type FakeGateway struct {
	Server *httptest.Server

	mu     sync.Mutex
	jobs   []types.Job
	runs   map[string][]types.RunLogEntry
	calls  map[string]int
	nextID int
	down   bool
	token  string
}

type rpcFailure struct {
	status  int
	code    string
	message string
}

func NewFakeGateway(t testing.TB, jobs ...types.Job) *FakeGateway {
	t.Helper()

	g := &FakeGateway{
		jobs:  append([]types.Job{}, jobs...),
		runs:  make(map[string][]types.RunLogEntry),
		calls: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/", g.handleHTTP)
	mux.HandleFunc("/ws", g.handleWS)
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Server.Close)

	return g
}

func (g *FakeGateway) URL() string {
	return g.Server.URL
}

// RequireToken makes every call without the bearer token fail with 401.
func (g *FakeGateway) RequireToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

// SetDown makes every HTTP call fail with 503 until it is cleared. Calls made
// while down are still counted.
func (g *FakeGateway) SetDown(down bool) {
	g.mu.Lock()
	g.down = down
	g.mu.Unlock()
}

func (g *FakeGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *FakeGateway) Jobs() []types.Job {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]types.Job{}, g.jobs...)
}

func (g *FakeGateway) Job(id string) (types.Job, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.indexOf(id); i >= 0 {
		return g.jobs[i], true
	}
	return types.Job{}, false
}

func (g *FakeGateway) AddRuns(id string, entries ...types.RunLogEntry) {
	g.mu.Lock()
	g.runs[id] = append(g.runs[id], entries...)
	g.mu.Unlock()
}

func (g *FakeGateway) authorized(r *http.Request) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token == "" || r.Header.Get("Authorization") == "Bearer "+g.token
}

func (g *FakeGateway) record(method string) {
	g.mu.Lock()
	g.calls[method]++
	g.mu.Unlock()
}

func (g *FakeGateway) isDown() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.down
}

func (g *FakeGateway) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	method := strings.TrimPrefix(r.URL.Path, "/rpc/")
	g.record(method)

	if g.isDown() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if !g.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var params json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, failure := g.dispatch(method, params)
	if failure != nil {
		writeJSON(w, failure.status, map[string]string{"error": failure.message, "code": failure.code})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type frame struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

func (g *FakeGateway) handleWS(w http.ResponseWriter, r *http.Request) {
	if !g.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := context.Background()
	for {
		var req frame
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return
		}

		g.record(req.Method)
		resp := frame{Type: "response", ID: req.ID}
		result, failure := g.dispatch(req.Method, req.Payload)
		if failure != nil {
			resp.Error = failure.message
			resp.Code = failure.code
		} else {
			resp.Payload, _ = json.Marshal(result)
		}
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			return
		}
	}
}

func notFound(id string) *rpcFailure {
	return &rpcFailure{status: http.StatusNotFound, code: "not_found", message: fmt.Sprintf("job %s not found", id)}
}

func badRequest(err error) *rpcFailure {
	return &rpcFailure{status: http.StatusBadRequest, code: "invalid_params", message: err.Error()}
}

func (g *FakeGateway) indexOf(id string) int {
	for i, job := range g.jobs {
		if job.ID == id {
			return i
		}
	}
	return -1
}

func (g *FakeGateway) dispatch(method string, params json.RawMessage) (any, *rpcFailure) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()

	var target struct {
		ID    string          `json:"id"`
		Patch json.RawMessage `json:"patch"`
	}
	if method != "cron.add" && len(params) > 0 {
		if err := json.Unmarshal(params, &target); err != nil {
			return nil, badRequest(err)
		}
	}

	switch method {
	case "cron.status":
		status := types.SchedulerStatus{Enabled: true, Jobs: len(g.jobs)}
		for _, job := range g.jobs {
			next := job.State.NextRunAtMs
			if job.Enabled && next != nil && (status.NextWakeAtMs == nil || *next < *status.NextWakeAtMs) {
				status.NextWakeAtMs = next
			}
		}
		return status, nil

	case "cron.list":
		return map[string]any{"jobs": g.jobs}, nil

	case "cron.runs":
		entries := g.runs[target.ID]
		if entries == nil {
			entries = []types.RunLogEntry{}
		}
		return map[string]any{"entries": entries}, nil

	case "cron.add":
		var in types.JobInput
		if err := json.Unmarshal(params, &in); err != nil {
			return nil, badRequest(err)
		}
		if err := in.Validate(); err != nil {
			return nil, badRequest(err)
		}
		g.nextID++
		job := types.Job{
			ID:            fmt.Sprintf("job-%d", g.nextID),
			Name:          in.Name,
			Description:   in.Description,
			AgentID:       in.AgentID,
			Enabled:       in.Enabled,
			CreatedAtMs:   now,
			UpdatedAtMs:   now,
			Schedule:      in.Schedule,
			SessionTarget: in.SessionTarget,
			WakeMode:      in.WakeMode,
			Payload:       in.Payload,
			Isolation:     in.Isolation,
		}
		g.jobs = append(g.jobs, job)
		return job, nil

	case "cron.update":
		i := g.indexOf(target.ID)
		if i < 0 {
			return nil, notFound(target.ID)
		}
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(target.Patch, &keys); err != nil {
			return nil, badRequest(err)
		}
		job := g.jobs[i]
		if _, full := keys["schedule"]; full {
			var in types.JobInput
			if err := json.Unmarshal(target.Patch, &in); err != nil {
				return nil, badRequest(err)
			}
			job.Name, job.Description, job.AgentID = in.Name, in.Description, in.AgentID
			job.Enabled = in.Enabled
			job.Schedule, job.Payload = in.Schedule, in.Payload
			job.SessionTarget, job.WakeMode, job.Isolation = in.SessionTarget, in.WakeMode, in.Isolation
		} else if raw, ok := keys["enabled"]; ok {
			if err := json.Unmarshal(raw, &job.Enabled); err != nil {
				return nil, badRequest(err)
			}
		}
		job.UpdatedAtMs = now
		g.jobs[i] = job
		return job, nil

	case "cron.run":
		if g.indexOf(target.ID) < 0 {
			return nil, notFound(target.ID)
		}
		duration := int64(5)
		g.runs[target.ID] = append([]types.RunLogEntry{{
			Ts:         now,
			JobID:      target.ID,
			Status:     types.RunSuccess,
			DurationMs: &duration,
			Summary:    "forced run",
		}}, g.runs[target.ID]...)
		return map[string]bool{"ok": true}, nil

	case "cron.remove":
		i := g.indexOf(target.ID)
		if i < 0 {
			return nil, notFound(target.ID)
		}
		g.jobs = append(g.jobs[:i], g.jobs[i+1:]...)
		delete(g.runs, target.ID)
		return map[string]bool{"ok": true, "removed": true}, nil
	}

	return nil, &rpcFailure{status: http.StatusNotFound, code: "unknown_method", message: "unknown method " + method}
}

// SampleJob returns an enabled job with a cron schedule and a system event payload.
func SampleJob(id, name string) types.Job {
	next := time.Now().Add(time.Hour).UnixMilli()
	return types.Job{
		ID:            id,
		Name:          name,
		Enabled:       true,
		Schedule:      types.CronSchedule{Expr: "0 9 * * *"},
		SessionTarget: types.SessionMain,
		WakeMode:      types.WakeNextHeartbeat,
		Payload:       types.SystemEventPayload{Text: "ping"},
		State:         types.JobState{NextRunAtMs: &next},
	}
}
