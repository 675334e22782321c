// Package daemon wires the admission controller, pipeline executor, and
// sequence manager together and routes inbound file events between them.
// It enforces single-instance execution with a lock file and periodically
// prunes expired duplicate-suppression state.
package daemon
