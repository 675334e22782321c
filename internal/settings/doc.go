// Package settings persists per-user rename preferences in SQLite: the
// format template, metadata toggle and tag values, thumbnail reference,
// caption template, media-type preference, and delivery destination.
// Reads for unknown users return zero-value settings rather than an error;
// the daemon decides which absent fields are acceptable.
package settings
