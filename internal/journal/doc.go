// Package journal persists ledger events to Postgres in batches.
//
// The writer consumes events from a stream subscriber buffer, batches
// them, and flushes on size or interval. Rows are append-only; replays
// deduplicate on event id.
package journal
