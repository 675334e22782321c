// Package textutil provides text processing utilities for filename
// sanitization and user-facing message truncation.
package textutil
