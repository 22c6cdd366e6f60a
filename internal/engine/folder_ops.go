package engine

import (
	"slices"

	"github.com/roach88/slideboard/internal/model"
)

// createFolder does not check that ParentID exists; a folder with a missing
// parent is shown at the root until the parent appears.
func createFolder(st model.State, a CreateFolder, env Env) (model.State, Outcome) {
	f := model.Folder{
		ID:        env.NewID(),
		Name:      a.Name,
		ParentID:  cloneID(a.ParentID),
		CreatedAt: env.Now,
		UpdatedAt: env.Now,
	}

	next := st
	next.Folders = append(slices.Clip(st.Folders), f)
	return next, Outcome{Changed: true, ID: f.ID}
}

func renameFolder(st model.State, a RenameFolder, env Env) (model.State, Outcome) {
	i := st.FolderIndex(a.ID)
	if i < 0 {
		return st, Outcome{}
	}

	next := st
	next.Folders = slices.Clone(st.Folders)
	next.Folders[i].Name = a.Name
	next.Folders[i].UpdatedAt = env.Now
	return next, Outcome{Changed: true, ID: a.ID}
}

// deleteFolder removes the folder and all its descendants. Decks filed in
// any removed folder are unfiled and count as touched.
func deleteFolder(st model.State, a DeleteFolder, env Env) (model.State, Outcome) {
	if st.FolderIndex(a.ID) < 0 {
		return st, Outcome{}
	}

	removed := model.CollectDescendantIDs(st.Folders, a.ID)

	next := st
	next.Folders = slices.DeleteFunc(slices.Clone(st.Folders), func(f model.Folder) bool {
		_, gone := removed[f.ID]
		return gone
	})

	decksTouched := false
	decks := slices.Clone(st.Presentations)
	for i, d := range decks {
		if d.FolderID == nil {
			continue
		}
		if _, gone := removed[*d.FolderID]; gone {
			d.FolderID = nil
			d.UpdatedAt = env.Now
			decks[i] = d
			decksTouched = true
		}
	}
	if decksTouched {
		next.Presentations = decks
	}
	return next, Outcome{Changed: true, ID: a.ID}
}
