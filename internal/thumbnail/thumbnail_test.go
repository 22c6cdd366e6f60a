package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/templates"
	"github.com/roach88/slideboard/internal/testutil"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestPNG_EmptySlideIsBackground(t *testing.T) {
	r, err := New(64, 36)
	require.NoError(t, err)

	data, err := r.PNG(model.NewEmptySlide(model.EngineExcalidraw, 0, "s"))
	require.NoError(t, err)

	img := decodePNG(t, data)
	assert.Equal(t, image.Rect(0, 0, 64, 36), img.Bounds())
	cr, cg, cb, _ := img.At(32, 18).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{cr, cg, cb})
}

func TestPNG_DrawsTemplate(t *testing.T) {
	r, err := New(0, 0)
	require.NoError(t, err)

	els, err := templates.Generate("two-columns", nil, templates.Env{NewID: testutil.NewSequenceIDs("e").Generate})
	require.NoError(t, err)
	slide := model.NewEmptySlide(model.EngineExcalidraw, 0, "s")
	p := slide.Payload.(model.ExcalidrawPayload)
	p.Elements = els
	slide.Payload = p

	data, err := r.PNG(slide)
	require.NoError(t, err)
	img := decodePNG(t, data)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())

	drawn := false
	for y := 0; y < DefaultHeight && !drawn; y++ {
		for x := 0; x < DefaultWidth; x++ {
			if cr, _, _, _ := img.At(x, y).RGBA(); cr != 0xffff {
				drawn = true
				break
			}
		}
	}
	assert.True(t, drawn, "expected non-background pixels")
}

func TestDataURL_Tldraw(t *testing.T) {
	r, err := New(16, 9)
	require.NoError(t, err)
	url, err := r.DataURL(model.NewEmptySlide(model.EngineTldraw, 0, "s"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestParseColor(t *testing.T) {
	c, ok := parseColor("#64748b")
	require.True(t, ok)
	assert.Equal(t, color.RGBA{0x64, 0x74, 0x8b, 0xff}, c)

	c, ok = parseColor("#fff")
	require.True(t, ok)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, c)

	for _, bad := range []string{"", "red", "#12", "#zzzzzz"} {
		_, ok := parseColor(bad)
		assert.False(t, ok, bad)
	}
}
