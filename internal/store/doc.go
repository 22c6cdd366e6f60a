// Package store provides SQLite-backed local storage for slideboard.
//
// The store holds two kinds of records:
//   - Slots: named opaque documents. The persisted presentation state is
//     one slot (see persist.StorageKey); the store never looks inside it.
//   - Previews: rendered slide thumbnails as data URLs, keyed by slide id.
//
// Writes are upserts: the last write for a key wins. There is no
// cross-process coordination beyond SQLite's own locking.
//
// Connections run in WAL mode with synchronous=NORMAL and a five second busy
// timeout. The schema version lives in PRAGMA user_version; Open applies the
// pending entries of the migrations list, one transaction each.
package store
