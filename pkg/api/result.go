package api

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

type (
	// ResultRecord holds the raw result document the engine produced for a
	// single piece of equipment. Fields are read lazily through gjson paths
	// rather than decoded into a fixed schema.
	ResultRecord struct {
		Equipment Name            `json:"equipment"`
		Raw       json.RawMessage `json:"raw,omitempty"`
	}

	// RunReport collects the outcome of one flowsheet execution, keyed by
	// equipment name
	RunReport struct {
		RunID       string                 `json:"run_id"`
		StartedAt   time.Time              `json:"started_at"`
		CompletedAt time.Time              `json:"completed_at,omitempty"`
		Status      ContextStatus          `json:"status"`
		Error       string                 `json:"error,omitempty"`
		Order       []Name                 `json:"order,omitempty"`
		Results     map[Name]*ResultRecord `json:"results,omitempty"`
	}
)

// Get resolves a gjson path against the raw result document
func (r *ResultRecord) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

// Float returns the numeric value at path and whether it exists
func (r *ResultRecord) Float(path string) (float64, bool) {
	res := r.Get(path)
	if !res.Exists() {
		return 0, false
	}
	return res.Float(), true
}

// Result returns the record for the named equipment, or nil when the run
// produced none
func (r *RunReport) Result(name Name) *ResultRecord {
	if r.Results == nil {
		return nil
	}
	return r.Results[name]
}

// Succeeded reports whether the run reached completion
func (r *RunReport) Succeeded() bool {
	return r.Status == StatusCompleted
}
