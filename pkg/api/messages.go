package api

type (
	// RunRequest submits a complete flowsheet declaration for execution
	RunRequest struct {
		Equipment []*Equipment `json:"equipment"`
	}

	// ScriptRequest submits a flowsheet declaration script for execution
	ScriptRequest struct {
		Language string `json:"language"`
		Source   string `json:"source"`
	}

	// RunResponse carries the outcome of a flowsheet execution. Error is
	// set when the run reached the engine but failed there.
	RunResponse struct {
		Report *RunReport `json:"report"`
		Error  string     `json:"error,omitempty"`
	}

	// RunListResponse carries recent run IDs, newest first
	RunListResponse struct {
		Runs []string `json:"runs"`
	}

	// ErrorResponse is the JSON error envelope returned by the service
	ErrorResponse struct {
		Error string `json:"error"`
	}

	// HealthResponse reports service liveness
	HealthResponse struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}

	// KindInfo describes one equipment kind and its recognized parameters
	KindInfo struct {
		Kind   Kind            `json:"kind"`
		Params map[Name]string `json:"params"`
	}
)
