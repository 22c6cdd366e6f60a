package model

// Schema version history for persisted state:
//
//	1 - flat excalidraw-only slides, no folders
//	2 - folders and Deck.FolderID
//	3 - canvasEngine per deck, engine-tagged slides, sceneVersion
//	4 - per-slide problem baseline
const SchemaVersion = 4
