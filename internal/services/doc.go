// Package services holds the cross-cutting error taxonomy and context
// annotation helpers shared by the admission controller, the pipeline
// executor, and the sequence buffer.
package services
