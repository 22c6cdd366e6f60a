// Package persist saves model.State to a storage slot and restores it,
// upgrading documents written by older versions.
//
// The slot holds one JSON envelope:
//
//	{"version": 4, "state": {"folders": [...], "presentations": [...], "currentPresentationId": null}}
//
// Load never fails on bad data. A missing slot yields an empty state, an
// unreadable one is logged and also yields an empty state. Documents with
// an older version run through the migration chain in migrate.go. Only I/O
// errors from the slot itself are returned.
//
// Persister is an engine listener that writes the envelope after every
// accepted action. A failed write is logged and counted; the in-memory state
// stays authoritative and the next successful write catches up.
package persist
