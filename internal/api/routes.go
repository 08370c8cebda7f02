package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func SetupRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/api/v1/health", handler.HealthCheck).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/jobs", handler.SubmitJob).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/jobs", handler.ListJobs).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/jobs/{id}", handler.GetJob).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/jobs/{id}", handler.CancelJob).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/jobs/{id}/result", handler.GetJobResult).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/circuits/analyze", handler.AnalyzeCircuit).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/providers", handler.ListProviders).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/providers/{name}/health", handler.GetProviderHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/providers/{name}/cost", handler.EstimateProviderCost).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/network/stats", handler.GetNetworkStats).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/network/gas", handler.GetGasEstimate).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/transactions/{address}", handler.GetTransactions).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/assistant/chat", handler.Chat).Methods(http.MethodPost)

	router.HandleFunc("/api/v1/reports", handler.CreateReport).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/reports", handler.ListReports).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/templates", handler.ListTemplates).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/templates", handler.CreateTemplate).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/templates/{id}", handler.GetTemplate).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/history", handler.GetHistory).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/scheduler/tasks", handler.ListTasks).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/scheduler/tasks/{name}", handler.GetTaskStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/scheduler/start", handler.StartScheduler).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/scheduler/stop", handler.StopScheduler).Methods(http.MethodPost)
}
