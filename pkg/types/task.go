package types

// Task represents a scheduled background task configuration
type Task struct {
	Name        string `json:"name"`
	Schedule    string `json:"schedule"`
	TaskName    string `json:"task"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// TaskConfig represents the task scheduler configuration
type TaskConfig struct {
	MaxConcurrent int    `json:"max_concurrent"`
	Predefined    []Task `json:"predefined"`
}
