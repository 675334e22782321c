// Package sequence implements collect-then-flush delivery. While a user's
// session is collecting, arriving files are buffered instead of entering
// the admission queue. An explicit end-flush replays the collected files in
// episode order; files without a detectable episode sort last in arrival
// order.
package sequence
