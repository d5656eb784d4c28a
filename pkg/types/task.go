package types

// Task represents a scheduled maintenance task of the console itself
type Task struct {
	Name        string `json:"name"`
	Schedule    string `json:"schedule"`
	TaskName    string `json:"task"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// TaskConfig represents the maintenance scheduler configuration
type TaskConfig struct {
	MaxConcurrent int    `json:"max_concurrent"`
	Predefined    []Task `json:"predefined"`
}
