// Package engine is the only boundary through which the flowsheet layer
// reaches the external numerical engine. The engine itself performs all
// thermodynamic and process calculations; this package merely registers
// equipment, triggers execution to convergence, and reads back results.
//
// A single engine backend is assumed to host one live flowsheet at a time.
// Callers running concurrent contexts against a shared backend must
// serialize access themselves.
package engine
