// Package harness runs scripted scenarios against the presentation store.
//
// A scenario dispatches a sequence of actions into a fresh engine.Store with
// a fixed clock and sequential ids, then checks the recorded trace and the
// final state. Every change is persisted into an in-memory SQLite slot; after
// the flow the harness reloads that slot and fails the scenario if the
// reloaded state differs from the live one.
//
// # Scenario Format
//
//	name: deck_lifecycle
//	description: "What this scenario validates"
//	start: 1704067200000   # optional clock reading, Unix ms
//	tick: 1                # optional clock advance per step, ms
//	setup:
//	  - action: create_folder
//	    args: { name: Courses }
//	flow:
//	  - invoke: create_presentation
//	    args: { name: Algebra, engine: excalidraw, folder: Courses }
//	    expect: { changed: true }
//	assertions:
//	  - type: trace_contains
//	    action: create_presentation
//	    args: { name: Algebra }
//	  - type: final_state
//	    table: presentations
//	    where: { name: Algebra }
//	    expect: { slideCount: 1, folder: Courses }
//
// Actions are named by their engine kind. Decks and folders are referenced by
// name in args: "deck" resolves to the first deck with that name, "folder"
// and "parent" to the first folder with that name; null unfiles.
//
// Assertion types: trace_contains, trace_order, trace_count, final_state.
// final_state tables are "presentations", "folders" and "slides"; the
// where clause must match exactly one row.
package harness
