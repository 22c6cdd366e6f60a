// Package engine implements the slideboard mutation engine.
//
// The engine is the single authority over model.State. Every change is an
// Action passed to Store.Dispatch, which runs the pure reducer Apply against
// the current snapshot and swaps in the result.
//
// ARCHITECTURE:
//
// Single-Writer Dispatch:
// Dispatch holds one mutex for the whole reduce/swap/notify sequence, so
// actions are applied one at a time in arrival order. Reads through State()
// are lock-free and always see a complete snapshot.
//
// Dispatch Flow:
//  1. Caller builds an Action (CreatePresentation, ReorderSlides, ...)
//  2. Apply derives the next State from the current one
//  3. No-op outcomes (unknown id, refused structural change) stop here
//  4. The new snapshot is published and listeners are called in
//     subscription order (the persister is one of them)
//
// Snapshots are never mutated after publication. Apply copies every slice
// it changes and reuses everything it does not touch, so an untouched deck
// in the next state shares its slides with the previous one.
//
// Canvas edits reach the engine through CanvasSync, which debounces rapid
// updates per slide and flushes pending edits on Close.
//
// INVARIANTS (hold after every Dispatch):
//   - every deck has at least one slide
//   - 0 <= currentSlideIndex < len(slides)
//   - every slide's engine equals its deck's canvasEngine
//   - the folder parent graph is acyclic
package engine
