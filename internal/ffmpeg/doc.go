// Package ffmpeg wraps the external ffmpeg and ffprobe binaries for tag
// injection and media probing. Tag injection rewrites container metadata
// without re-encoding; probing is best-effort and callers treat failures as
// "unknown" rather than fatal.
package ffmpeg
