// Package flowsheet is the process-flowsheet orchestration layer. Named
// equipment is declared, wired into a directed graph by upstream reference,
// ordered deterministically, and executed as a unit against an external
// numerical engine.
//
// Three styles coexist: an explicit Context with full lifecycle control, a
// fluent Builder that defers reference resolution until Build or Run, and a
// legacy process-wide default context retained for backward compatibility.
//
// Independent contexts are safe to use from separate goroutines. The engine
// backend behind an adapter is typically a single shared instance; runs
// against a shared backend must be serialized by the caller.
package flowsheet
