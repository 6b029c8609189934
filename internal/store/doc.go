// Package store provides SQLite-backed repositories for pantry collections.
//
// Each entity type (lists, sections, purchases, searches) has its own table
// and its own repository value. Repositories implement the durable half of
// the optimistic-mutation contract: Create assigns the durable id and
// timestamps, Update returns record.ErrNotFound for unknown ids, Delete
// reports whether a row was removed.
//
// # Ordering
//
// Every collection read uses ORDER BY created_at DESC, id DESC COLLATE BINARY.
// Page fetches continue strictly after a (created_at, id) cursor, so records
// sharing a created_at value are never dropped or repeated across pages.
//
// # Change notification
//
// After each committed write the store publishes the entity's topic on the
// notify.Hub passed to Open. Live windows subscribe to those topics.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Timestamps are stored as INTEGER unix nanoseconds (UTC).
package store
