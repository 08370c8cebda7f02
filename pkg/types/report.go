package types

import "time"

// ErrorReport is a free-form error submission from the dashboard.
type ErrorReport struct {
	ID         string         `json:"id"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Context    map[string]any `json:"context,omitempty"`
	Category   string         `json:"category"`
	Severity   string         `json:"severity"`
	Advice     string         `json:"advice"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Classification is the advice attached to a known error code.
type Classification struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Advice   string `json:"advice"`
}
