// Package storage persists the delivery log.
//
// The log is operator-facing observability: one row per dispatch lifecycle
// event (sent, failed, skipped, exhausted). It is strictly off the dispatch
// path: the engine stays non-durable, and a storage failure never fails a
// campaign.
//
// Two drivers exist: "file" (append-only jsonl, dependency-free) and
// "sqlite".
package storage
