package api

// ContextStatus represents the lifecycle state of a flowsheet context
type ContextStatus string

const (
	StatusOpen      ContextStatus = "open"
	StatusReady     ContextStatus = "ready"
	StatusRunning   ContextStatus = "running"
	StatusCompleted ContextStatus = "completed"
	StatusFailed    ContextStatus = "failed"
)
