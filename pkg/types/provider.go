package types

import "time"

// Provider describes one quantum hardware vendor from the catalog.
type Provider struct {
	Name        string  `json:"name" yaml:"name"`
	DisplayName string  `json:"display_name" yaml:"display_name"`
	Qubits      int     `json:"qubits" yaml:"qubits"`
	Fidelity    float64 `json:"fidelity" yaml:"fidelity"`
	QueueDepth  int     `json:"queue_depth" yaml:"queue_depth"`
	CostPerShot float64 `json:"cost_per_shot" yaml:"cost_per_shot"`
}

// DeviceHealth is a point-in-time health snapshot for a provider device.
type DeviceHealth struct {
	Provider        string    `json:"provider"`
	Status          string    `json:"status"`
	UptimePercent   float64   `json:"uptime_percent"`
	SingleQubitErr  float64   `json:"single_qubit_error"`
	TwoQubitErr     float64   `json:"two_qubit_error"`
	ReadoutErr      float64   `json:"readout_error"`
	PendingJobs     int       `json:"pending_jobs"`
	CalibrationAge  string    `json:"calibration_age"`
	AvgQueueMinutes int       `json:"avg_queue_minutes"`
	LastUpdated     time.Time `json:"last_updated"`
}
