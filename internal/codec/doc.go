// Package codec converts a single deck to and from the portable
// presentation document used for export and import.
//
// Exported documents are the deck's persisted shape, pretty-printed.
// Imported documents are treated as untrusted: the deck and every slide get
// fresh ids, slides are normalized to the current schema, and the deck is
// unfiled. codec depends only on model so it can be used without a store.
package codec
