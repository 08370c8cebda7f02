package types

import "time"

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether a job in this status can still change.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// Job represents a submitted quantum computation tracked by the service.
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Provider    string     `json:"provider"`
	Priority    Priority   `json:"priority"`
	Shots       int        `json:"shots"`
	Source      string     `json:"source,omitempty"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Result      *JobResult `json:"result,omitempty"`
}

// JobResult is attached to a job once it completes.
type JobResult struct {
	Counts        map[string]int `json:"counts"`
	Shots         int            `json:"shots"`
	Fidelity      float64        `json:"fidelity"`
	ExecutionMs   int64          `json:"execution_ms"`
	Qubits        int            `json:"qubits"`
	MostFrequent  string         `json:"most_frequent"`
	ProviderLabel string         `json:"provider_label"`
}

// SubmitRequest is the payload accepted by the job submission endpoint.
type SubmitRequest struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Provider    string   `json:"provider"`
	Priority    Priority `json:"priority"`
	Shots       int      `json:"shots"`
	Source      string   `json:"source,omitempty"`
}
