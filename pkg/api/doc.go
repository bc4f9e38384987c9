// Package api defines the shared data model of the flowsheet engine:
// equipment declarations, per-kind configuration parameters, run reports,
// and the wire types exchanged with the HTTP service.
package api
