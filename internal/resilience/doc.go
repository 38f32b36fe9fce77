// Package resilience provides the failure-handling primitives shared by
// the pipeline's downstream adapters: token-bucket rate limiting,
// circuit breaking, retry with backoff, and a bounded-concurrency
// executor.
package resilience
