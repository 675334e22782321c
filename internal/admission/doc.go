// Package admission turns bursts of incoming files into a bounded stream of
// concurrent pipeline executions. Each user has an independent FIFO queue
// with a per-user concurrency limit; two global counting semaphores bound
// total concurrent downloads and uploads across all users. Duplicate
// submissions inside a short window are dropped before a task is created.
package admission
