// Package pipeline runs one admitted task through acquire, tag injection,
// thumbnail normalization, caption formatting, and delivery. The acquire
// and deliver stages hold one global transfer slot each for exactly the
// duration of the transfer. Tag injection and thumbnail failures degrade
// the output instead of failing the task; acquire and delivery failures are
// fatal. Cleanup of the task workspace runs on every path.
package pipeline
