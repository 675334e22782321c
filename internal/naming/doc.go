// Package naming derives identifying metadata from media filenames and
// expands user rename templates.
//
// Extraction runs an ordered pattern cascade, most specific first: explicit
// season+episode markers, bracketed episode forms, episode-only markers, and
// finally a bare one-or-two digit fallback that skips resolution tokens.
// The first pattern producing an episode in 1..999 wins. Quality detection
// is a separate cascade with an "HD" fallback. Both are pure functions of
// the filename string.
package naming
