package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.ReadPreview(ctx, "slide-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.WritePreview(ctx, "slide-1", "data:image/png;base64,AAA"))
	require.NoError(t, s.WritePreview(ctx, "slide-1", "data:image/png;base64,BBB"))

	url, ok, err := s.ReadPreview(ctx, "slide-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,BBB", url)

	require.NoError(t, s.DeletePreview(ctx, "slide-1"))
	_, ok, err = s.ReadPreview(ctx, "slide-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreview_ListIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids, err := s.ListPreviewIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.WritePreview(ctx, id, "data:,"))
	}

	ids, err = s.ListPreviewIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}
