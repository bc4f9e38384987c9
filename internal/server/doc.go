// Package server implements the HTTP API for running flowsheets
// against a shared simulation backend. Runs are serialized because the
// backend holds a single global equipment registry.
package server
