package types

import "time"

// Template is a reusable circuit a job can be submitted from.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Builtin     bool      `json:"builtin"`
	Qubits      int       `json:"qubits"`
	CreatedAt   time.Time `json:"created_at"`
}
