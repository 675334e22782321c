// Package logging wraps log/slog with renamer conventions: a compact console
// handler for interactive use, a JSON handler for log files, standardized
// field keys, and helpers that derive attributes from a task context.
package logging
