package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/quantumchain-labs/quantumchain/internal/assistant"
	"github.com/quantumchain-labs/quantumchain/internal/chain"
	"github.com/quantumchain-labs/quantumchain/internal/config"
	"github.com/quantumchain-labs/quantumchain/internal/cron"
	"github.com/quantumchain-labs/quantumchain/internal/history"
	"github.com/quantumchain-labs/quantumchain/internal/jobs"
	"github.com/quantumchain-labs/quantumchain/internal/provider"
	"github.com/quantumchain-labs/quantumchain/internal/qasm"
	"github.com/quantumchain-labs/quantumchain/internal/reports"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

// HistorySource reads persisted execution records.
type HistorySource interface {
	Recent(limit int) ([]history.Record, error)
}

type Handler struct {
	logger    *logrus.Logger
	config    *config.Config
	jobs      *jobs.Store
	templates *jobs.TemplateStore
	catalog   *provider.Catalog
	stats     *chain.Stats
	explorer  *chain.ExplorerClient
	assistant *assistant.Assistant
	reports   *reports.Store
	history   HistorySource
	Scheduler *cron.Scheduler
}

// Deps bundles the services the handler exposes over HTTP.
type Deps struct {
	Jobs      *jobs.Store
	Templates *jobs.TemplateStore
	Catalog   *provider.Catalog
	Stats     *chain.Stats
	Explorer  *chain.ExplorerClient
	Assistant *assistant.Assistant
	Reports   *reports.Store
	History   HistorySource
}

func NewHandler(logger *logrus.Logger, cfg *config.Config, deps Deps) *Handler {
	scheduler := cron.NewScheduler(logger, cfg.Tasks)

	scheduler.RegisterTask("refresh-health", func() error {
		start := time.Now()
		if err := deps.Catalog.RefreshAll(); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"task":     "refresh-health",
			"duration": time.Since(start).String(),
		}).Info("Refreshed provider health")
		return nil
	})

	retention := parseRetention(logger, cfg.Jobs.Retention)
	scheduler.RegisterTask("prune-jobs", func() error {
		if removed := deps.Jobs.Prune(retention); removed > 0 {
			logger.WithFields(logrus.Fields{
				"task":    "prune-jobs",
				"removed": removed,
			}).Info("Pruned finished jobs")
		}
		return nil
	})

	scheduler.RegisterTask("advance-chain", deps.Stats.Advance)

	tasks := cfg.Tasks.Predefined
	if len(tasks) == 0 {
		tasks = cron.DefaultTasks()
	}
	if err := scheduler.LoadPredefinedTasks(tasks); err != nil {
		logger.Fatalf("Failed to load predefined tasks: %v", err)
	}

	if deps.History == nil {
		deps.History = history.NopRecorder{}
	}

	return &Handler{
		logger:    logger,
		config:    cfg,
		jobs:      deps.Jobs,
		templates: deps.Templates,
		catalog:   deps.Catalog,
		stats:     deps.Stats,
		explorer:  deps.Explorer,
		assistant: deps.Assistant,
		reports:   deps.Reports,
		history:   deps.History,
		Scheduler: scheduler,
	}
}

func parseRetention(logger *logrus.Logger, raw string) time.Duration {
	if raw == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warnf("Invalid job retention %q, using 1h", raw)
		return time.Hour
	}
	return d
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	job, err := h.jobs.Submit(req)
	if err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	h.respond(w, http.StatusCreated, job)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	providerName := r.URL.Query().Get("provider")

	list := h.jobs.List(status, providerName)
	h.respond(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"total": len(list),
	})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, err, http.StatusNotFound)
		return
	}
	h.respond(w, http.StatusOK, job)
}

func (h *Handler) GetJobResult(w http.ResponseWriter, r *http.Request) {
	// Unknown jobs and jobs that have not completed both read as absent: the
	// result does not exist yet.
	result, err := h.jobs.Result(mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, err, http.StatusNotFound)
		return
	}
	h.respond(w, http.StatusOK, result)
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Cancel(mux.Vars(r)["id"])
	if err != nil {
		var conflict *jobs.ConflictError
		if errors.As(err, &conflict) {
			h.handleError(w, err, http.StatusConflict)
			return
		}
		h.handleError(w, err, http.StatusNotFound)
		return
	}
	h.respond(w, http.StatusOK, job)
}

func (h *Handler) AnalyzeCircuit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Shots  int    `json:"shots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	metrics, err := qasm.Analyze(req.Source)
	if err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	shots := req.Shots
	if shots <= 0 {
		shots = h.config.Jobs.DefaultShots
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"metrics":              metrics,
		"two_qubit_ratio":      metrics.TwoQubitRatio(),
		"estimated_runtime_ms": metrics.EstimateRuntimeMs(shots),
	})
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.catalog.List()
	h.respond(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"total":     len(providers),
	})
}

func (h *Handler) GetProviderHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.catalog.Health(mux.Vars(r)["name"])
	if err != nil {
		h.handleError(w, err, http.StatusNotFound)
		return
	}
	h.respond(w, http.StatusOK, health)
}

func (h *Handler) EstimateProviderCost(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	shots := queryInt(r, "shots", h.config.Jobs.DefaultShots)
	depth := queryInt(r, "depth", 1)

	cost, err := h.catalog.EstimateCost(name, shots, depth)
	if err != nil {
		h.handleError(w, err, http.StatusNotFound)
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"provider": name,
		"shots":    shots,
		"depth":    depth,
		"cost_usd": cost,
	})
}

func (h *Handler) GetNetworkStats(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.stats.Network())
}

func (h *Handler) GetGasEstimate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.stats.Gas())
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !chain.ValidAddress(address) {
		h.handleError(w, errors.New("invalid address: expected 0x followed by 40 hex characters"), http.StatusBadRequest)
		return
	}

	txs, err := h.explorer.Transactions(r.Context(), address)
	if err != nil {
		h.handleError(w, err, http.StatusBadGateway)
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"address":      address,
		"transactions": txs,
		"total":        len(txs),
	})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	reply, err := h.assistant.Answer(ctx, req.Message)
	if err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}
	h.respond(w, http.StatusOK, reply)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
		Context map[string]any  `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	report, err := h.reports.Add(normalizeCode(req.Code), req.Message, req.Context)
	if err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}
	h.respond(w, http.StatusCreated, report)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	list := h.reports.List(queryInt(r, "limit", 0))
	h.respond(w, http.StatusOK, map[string]interface{}{
		"reports": list,
		"total":   len(list),
	})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list := h.templates.List()
	h.respond(w, http.StatusOK, map[string]interface{}{
		"templates": list,
		"total":     len(list),
	})
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Source      string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	tpl, err := h.templates.Create(req.Name, req.Description, req.Source)
	if err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}
	h.respond(w, http.StatusCreated, tpl)
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.templates.Get(mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, err, http.StatusNotFound)
		return
	}
	h.respond(w, http.StatusOK, tpl)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.Recent(queryInt(r, "limit", 50))
	if err != nil {
		h.handleError(w, err, http.StatusInternalServerError)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"executions": records,
		"total":      len(records),
	})
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.Scheduler.ListTasks()
	h.respond(w, http.StatusOK, map[string]interface{}{
		"tasks":        tasks,
		"active_tasks": len(tasks),
		"running":      h.Scheduler.IsRunning(),
	})
}

func (h *Handler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	enabled, description, err := h.Scheduler.GetTaskStatus(name)
	if err != nil {
		h.handleError(w, err, http.StatusNotFound)
		return
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"name":        name,
		"enabled":     enabled,
		"description": description,
	})
}

func (h *Handler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	if err := h.Scheduler.Start(); err != nil {
		h.handleError(w, err, http.StatusConflict)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{
		"status": "scheduler started successfully",
	})
}

func (h *Handler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.Stop()
	h.respond(w, http.StatusOK, map[string]string{
		"status": "scheduler stopped successfully",
	})
}

func (h *Handler) respond(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, code int) {
	if code >= http.StatusInternalServerError {
		h.logger.Error(err)
	}
	h.respond(w, code, map[string]string{
		"error": err.Error(),
	})
}

// normalizeCode accepts the error code as either a JSON string ("500",
// "PROVIDER_OFFLINE") or a bare number (500) and yields its string form.
func normalizeCode(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router := mux.NewRouter()
	SetupRoutes(router, h)
	router.ServeHTTP(w, r)
}
