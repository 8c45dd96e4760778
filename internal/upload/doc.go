// Package upload sends projected records to the remote store.
//
// All calls go through a RateLimiter that keeps a minimum interval between
// the end of one call and the start of the next. Creates are retried a
// bounded number of times; a record that still fails is written to the
// failure log and the batch moves on. Updates are not retried and, by
// default, a failed update stops the batch.
//
// Nothing here is safe for concurrent use.
package upload
