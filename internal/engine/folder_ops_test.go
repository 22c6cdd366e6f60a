package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slideboard/internal/model"
)

func TestCreateFolder(t *testing.T) {
	s, _ := setupTestStore(t)

	root := s.CreateFolder("Courses", nil)
	child := s.CreateFolder("Physics", model.StringPtr(root))
	dangling := s.CreateFolder("Later", model.StringPtr("not-yet"))

	st := s.State()
	require.Len(t, st.Folders, 3)
	assert.Equal(t, root, *st.Folders[1].ParentID)
	assert.Equal(t, "not-yet", *st.Folders[2].ParentID)

	tree := model.BuildFolderTree(st.Folders, st.Presentations)
	require.Len(t, tree.Roots, 2)
	assert.Equal(t, root, tree.Roots[0].Folder.ID)
	assert.Equal(t, child, tree.Roots[0].Children[0].Folder.ID)
	assert.Equal(t, dangling, tree.Roots[1].Folder.ID)
}

func TestRenameFolder(t *testing.T) {
	s, clock := setupTestStore(t)
	id := s.CreateFolder("Old", nil)

	clock.Advance(7)
	s.RenameFolder(id, "New")

	f := s.State().Folders[0]
	assert.Equal(t, "New", f.Name)
	assert.Equal(t, int64(1007), f.UpdatedAt)
	assert.Equal(t, int64(1000), f.CreatedAt)

	assert.False(t, s.Dispatch(RenameFolder{ID: "missing", Name: "x"}).Changed)
}

func TestDeleteFolder_Cascade(t *testing.T) {
	s, clock := setupTestStore(t)
	a := s.CreateFolder("A", nil)
	b := s.CreateFolder("B", model.StringPtr(a))
	c := s.CreateFolder("C", model.StringPtr(b))
	other := s.CreateFolder("Other", nil)

	inC := s.CreatePresentation("in C", model.StringPtr(c), "")
	inOther := s.CreatePresentation("in Other", model.StringPtr(other), "")
	untouched := deck(t, s, inOther)

	clock.Advance(50)
	s.DeleteFolder(a)

	st := s.State()
	require.Len(t, st.Folders, 1)
	assert.Equal(t, other, st.Folders[0].ID)

	d := deck(t, s, inC)
	assert.Nil(t, d.FolderID)
	assert.Equal(t, int64(1050), d.UpdatedAt)
	assert.Equal(t, untouched, deck(t, s, inOther))
}

func TestDeleteFolder_UnknownIsNoop(t *testing.T) {
	s, _ := setupTestStore(t)
	s.CreateFolder("A", nil)
	before := s.State()

	assert.False(t, s.Dispatch(DeleteFolder{ID: "missing"}).Changed)
	assert.Equal(t, before, s.State())
}

func TestDeleteFolder_CorruptCycleTerminates(t *testing.T) {
	st := model.EmptyState()
	st.Folders = []model.Folder{
		{ID: "a", ParentID: model.StringPtr("b")},
		{ID: "b", ParentID: model.StringPtr("a")},
		{ID: "c"},
	}
	s := New(st)

	s.DeleteFolder("a")

	require.Len(t, s.State().Folders, 1)
	assert.Equal(t, "c", s.State().Folders[0].ID)
}
