// Package procflow identifies the flowsheet orchestration engine build.
package procflow

const (
	// Name is the service name reported in logs and health responses
	Name = "procflow"

	// Version is the engine release version
	Version = "0.3.0"
)
