package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantumchain-labs/quantumchain/internal/assistant"
	"github.com/quantumchain-labs/quantumchain/internal/chain"
	"github.com/quantumchain-labs/quantumchain/internal/config"
	"github.com/quantumchain-labs/quantumchain/internal/jobs"
	"github.com/quantumchain-labs/quantumchain/internal/provider"
	"github.com/quantumchain-labs/quantumchain/internal/reports"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, jobOpts ...jobs.Option) *Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Jobs: config.JobsConfig{
			MaxConcurrent: 4,
			DefaultShots:  1024,
			MaxShots:      8192,
			Retention:     "1h",
		},
		Tasks: types.TaskConfig{MaxConcurrent: 5},
	}

	base := []jobs.Option{jobs.WithTick(time.Millisecond), jobs.WithFailRate(0), jobs.WithSeed(7)}
	store := jobs.NewStore(logger, cfg.Jobs.MaxConcurrent, cfg.Jobs.DefaultShots, cfg.Jobs.MaxShots,
		append(base, jobOpts...)...)

	return NewHandler(logger, cfg, Deps{
		Jobs:      store,
		Templates: jobs.NewTemplateStore(),
		Catalog:   provider.NewCatalog(logger, nil),
		Stats:     chain.NewStats(logger),
		Explorer:  chain.NewExplorerClient(logger, "", ""),
		Assistant: assistant.New(logger, nil),
		Reports:   reports.NewStore(logger),
	})
}

func doRequest(h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/jobs", types.SubmitRequest{
		Type:     "bell-state",
		Provider: "qsim-local",
		Shots:    512,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var job types.Job
	decode(t, rec, &job)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, types.StatusQueued, job.Status)

	deadline := time.Now().Add(5 * time.Second)
	var result types.JobResult
	for {
		rec = doRequest(h, http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil)
		if rec.Code == http.StatusOK {
			decode(t, rec, &result)
			break
		}
		require.Equal(t, http.StatusNotFound, rec.Code)
		if time.Now().After(deadline) {
			t.Fatal("job never produced a result")
		}
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, 512, result.Shots)

	// Terminal jobs cannot be cancelled
	rec = doRequest(h, http.MethodDelete, "/api/v1/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitJobValidationError(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/jobs", types.SubmitRequest{
		Type: "shor", Provider: "qsim-local",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.NotEmpty(t, body["error"])
}

func TestGetJobNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/jobs/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJobResultBeforeCompletion(t *testing.T) {
	// Slow ticks keep the job running for the whole test
	h := newTestHandler(t, jobs.WithTick(time.Hour))

	rec := doRequest(h, http.MethodPost, "/api/v1/jobs", types.SubmitRequest{
		Type: "qft", Provider: "qsim-local",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var job types.Job
	decode(t, rec, &job)

	rec = doRequest(h, http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/v1/jobs/no-such-id/result", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodDelete, "/api/v1/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListJobsFiltered(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/jobs", types.SubmitRequest{
		Type: "grover", Provider: "ionq-aria",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/v1/jobs?provider=ionq-aria", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs  []types.Job `json:"jobs"`
		Total int         `json:"total"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 1, body.Total)

	rec = doRequest(h, http.MethodGet, "/api/v1/jobs?provider=ibm-heron", nil)
	decode(t, rec, &body)
	assert.Zero(t, body.Total)
}

func TestAnalyzeCircuit(t *testing.T) {
	h := newTestHandler(t)

	source := "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\ncreg c[2];\nh q[0];\ncx q[0],q[1];\nmeasure q -> c;\n"
	rec := doRequest(h, http.MethodPost, "/api/v1/circuits/analyze", map[string]string{
		"source": source,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Metrics struct {
			Qubits     int  `json:"qubits"`
			TotalGates int  `json:"total_gates"`
			Entangling bool `json:"entangling"`
		} `json:"metrics"`
		EstimatedRuntimeMs float64 `json:"estimated_runtime_ms"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Metrics.Qubits)
	assert.Equal(t, 2, body.Metrics.TotalGates)
	assert.True(t, body.Metrics.Entangling)
	assert.Greater(t, body.EstimatedRuntimeMs, 0.0)
}

func TestAnalyzeCircuitRejectsGarbage(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/circuits/analyze", map[string]string{
		"source": "not a circuit",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProviders(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Providers []types.Provider `json:"providers"`
		Total     int              `json:"total"`
	}
	decode(t, rec, &body)
	assert.Equal(t, len(provider.Defaults()), body.Total)
}

func TestProviderHealth(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/providers/qsim-local/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health types.DeviceHealth
	decode(t, rec, &health)
	assert.Equal(t, "qsim-local", health.Provider)

	rec = doRequest(h, http.MethodGet, "/api/v1/providers/nope/health", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimateProviderCost(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/providers/ionq-aria/cost?shots=1000&depth=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Provider string  `json:"provider"`
		Shots    int     `json:"shots"`
		CostUSD  float64 `json:"cost_usd"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "ionq-aria", body.Provider)
	assert.Equal(t, 1000, body.Shots)
	assert.Greater(t, body.CostUSD, 0.0)
}

func TestNetworkEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/network/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.NetworkStats
	decode(t, rec, &stats)
	assert.Greater(t, stats.BlockHeight, int64(0))

	rec = doRequest(h, http.MethodGet, "/api/v1/network/gas", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var gas types.GasEstimate
	decode(t, rec, &gas)
	assert.Less(t, gas.SlowGwei, gas.FastGwei)
}

func TestGetTransactions(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/transactions/0x1234567890abcdef1234567890abcdef12345678", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Transactions []types.Transaction `json:"transactions"`
		Total        int                 `json:"total"`
	}
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Transactions)

	rec = doRequest(h, http.MethodGet, "/api/v1/transactions/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/assistant/chat", map[string]string{
		"message": "what is entanglement?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply assistant.Reply
	decode(t, rec, &reply)
	assert.Equal(t, assistant.SourceCanned, reply.Source)
	assert.NotEmpty(t, reply.Text)

	rec = doRequest(h, http.MethodPost, "/api/v1/assistant/chat", map[string]string{
		"message": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"code":    "PROVIDER_OFFLINE",
		"message": "ionq-aria stopped responding",
		"context": map[string]string{"provider": "ionq-aria"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var report types.ErrorReport
	decode(t, rec, &report)
	assert.Equal(t, "provider", report.Category)

	// Numeric codes arrive as JSON numbers from the dashboard
	rec = doRequest(h, http.MethodPost, "/api/v1/reports", map[string]interface{}{
		"code":    500,
		"message": "unexpected error while submitting",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &report)
	assert.Equal(t, "500", report.Code)
	assert.Equal(t, "internal", report.Category)
	assert.Equal(t, "critical", report.Severity)

	rec = doRequest(h, http.MethodGet, "/api/v1/reports?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Reports []types.ErrorReport `json:"reports"`
		Total   int                 `json:"total"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Total)
}

func TestTemplatesOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Templates []types.Template `json:"templates"`
		Total     int              `json:"total"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.Templates)
	builtins := body.Total

	rec = doRequest(h, http.MethodPost, "/api/v1/templates", map[string]string{
		"name":        "my circuit",
		"description": "two qubit test",
		"source":      "OPENQASM 2.0;\nqreg q[2];\nh q[0];\ncx q[0],q[1];\n",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var tpl types.Template
	decode(t, rec, &tpl)
	assert.False(t, tpl.Builtin)

	rec = doRequest(h, http.MethodGet, "/api/v1/templates/"+tpl.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/v1/templates", nil)
	decode(t, rec, &body)
	assert.Equal(t, builtins+1, body.Total)

	rec = doRequest(h, http.MethodGet, "/api/v1/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEmptyWithoutStore(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Executions []interface{} `json:"executions"`
		Total      int           `json:"total"`
	}
	decode(t, rec, &body)
	assert.Zero(t, body.Total)
}

func TestSchedulerEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/v1/scheduler/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tasks   []types.Task `json:"tasks"`
		Running bool         `json:"running"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Tasks, 3)
	assert.False(t, body.Running)

	rec = doRequest(h, http.MethodGet, "/api/v1/scheduler/tasks/refresh-health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/v1/scheduler/tasks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/v1/scheduler/start", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/v1/scheduler/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/v1/scheduler/stop", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, h.Scheduler.IsRunning())
}
