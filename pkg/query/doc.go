// Package query implements the query service: the read-side cache of
// ArtStore's file metadata. It consumes the admin-module's file-events
// Redis Stream, keeps a Postgres-backed full-text search index up to
// date, and serves search and download-redirection requests.
//
// The consumer is at-least-once: every delivery is idempotent (keyed by
// file_id+event_type+stream_id) so a crash between processing and XACK
// only costs a redundant, harmless upsert on redelivery. A message that
// keeps failing past eventbus.MaxDeliveries is moved to the dead-letter
// stream by the consumer's own reclaim loop rather than retried forever.
package query
