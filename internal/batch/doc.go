// Package batch runs one operation per item over a list, a fixed-size chunk at a time.
//
// Every import, bulk delete and bulk create in stockdesk goes through a Runner:
//   - items are split into ceil(len/ChunkSize) chunks, preserving input order
//   - all operations of a chunk run concurrently and are awaited together
//   - a failing item never stops its chunk or the chunks after it
//   - a Progress snapshot is delivered after each chunk
//   - InterChunkDelay is slept between chunks (never after the last one)
//
// Item failures are data: they are folded into the Summary, never returned as
// errors. Run only returns an error for invalid parameters, before any item is
// touched. A cancelled context or an operation error wrapped with Abort stops
// the run at the next chunk boundary; items that were never attempted are
// recorded as failures wrapping ErrNotAttempted. Failed items are not retried.
package batch
