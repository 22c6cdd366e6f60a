package model

import "sort"

// Folder groups decks. ParentID nil means the folder sits at the root.
type Folder struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

// CollectDescendantIDs returns rootID and every folder below it.
//
// The parent graph is walked by repeated passes until a pass adds nothing,
// so the walk terminates even if stored data contains a cycle.
func CollectDescendantIDs(folders []Folder, rootID string) map[string]struct{} {
	ids := map[string]struct{}{rootID: {}}
	for changed := true; changed; {
		changed = false
		for _, f := range folders {
			if f.ParentID == nil {
				continue
			}
			if _, in := ids[f.ID]; in {
				continue
			}
			if _, parentIn := ids[*f.ParentID]; parentIn {
				ids[f.ID] = struct{}{}
				changed = true
			}
		}
	}
	return ids
}

// FolderNode is one folder in a FolderTree with its subfolders and the ids
// of the decks filed directly in it.
type FolderNode struct {
	Folder   Folder        `json:"folder"`
	Children []*FolderNode `json:"children"`
	DeckIDs  []string      `json:"deckIds"`
}

// FolderTree is the nested view of the folder forest.
type FolderTree struct {
	Roots []*FolderNode `json:"roots"`
	// Unfiled lists decks with no folder or a folder id that does not exist.
	Unfiled []string `json:"unfiled"`
}

// BuildFolderTree nests folders under their parents. Folders whose parent
// does not exist are shown at the root. Siblings are ordered by name, then
// id; decks keep their order in decks.
func BuildFolderTree(folders []Folder, decks []Deck) FolderTree {
	nodes := make(map[string]*FolderNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &FolderNode{Folder: f, Children: []*FolderNode{}, DeckIDs: []string{}}
	}

	tree := FolderTree{Roots: []*FolderNode{}, Unfiled: []string{}}
	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID != nil {
			if parent, ok := nodes[*f.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		tree.Roots = append(tree.Roots, node)
	}

	for _, d := range decks {
		if d.FolderID != nil {
			if node, ok := nodes[*d.FolderID]; ok {
				node.DeckIDs = append(node.DeckIDs, d.ID)
				continue
			}
		}
		tree.Unfiled = append(tree.Unfiled, d.ID)
	}

	sortNodes(tree.Roots)
	for _, node := range nodes {
		sortNodes(node.Children)
	}
	return tree
}

func sortNodes(nodes []*FolderNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Folder.Name != nodes[j].Folder.Name {
			return nodes[i].Folder.Name < nodes[j].Folder.Name
		}
		return nodes[i].Folder.ID < nodes[j].Folder.ID
	})
}
