// Package record defines the entities held by pantry collections and the
// small vocabulary shared by every layer that moves them around.
//
// # Records
//
// A record is an immutable value snapshot. Every entity exposes its durable
// identifier and its two timestamps through the Record interface; entities
// owned by a list additionally implement Parented. A new version of a record
// replaces the previous snapshot wholesale, it is never mutated in place.
//
// # Identifiers
//
// Durable identifiers are UUIDv7 strings assigned by the store. Temporary
// identifiers carry the TempPrefix and exist only while an optimistic create
// is waiting for the store to confirm it. IsTemporaryID distinguishes them.
//
// # Ordering
//
// Collections are ordered newest first: created_at DESC, then id DESC.
// created_at is not unique, so the id tie-break is what keeps cursor
// pagination stable across page boundaries. Cursor carries both halves of
// the sort key; Less implements the comparison.
package record
