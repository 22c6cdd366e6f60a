// Package model defines the SlideBoard aggregate: folders, decks and their
// slides, plus the pure helpers that operate on single values of those types.
//
// This package imports nothing internal. Every other internal package
// depends on it, which keeps the data model the foundational layer.
//
// Key constraints:
//   - A Slide's payload is a tagged variant (ExcalidrawPayload or
//     TldrawPayload); code switches on the concrete type and never reads
//     fields of the other engine.
//   - Canvas records (elements, files, snapshots) are opaque JSON and are
//     stored as json.RawMessage so they round-trip byte for byte.
//   - Timestamps are Unix milliseconds.
//   - Values handed out by the engine are shared snapshots; call Clone
//     before mutating one.
package model
