package canvas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"designer-pro/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTemplate_ResetsElements(t *testing.T) {
	s := newTestStore()
	s.AddElement(core.NewText("a"))
	s.AddElement(core.NewImage("b.png"))

	require.NoError(t, ApplyTemplate(s, "Story"))

	doc := s.Document()
	assert.Empty(t, doc.Elements)
	assert.Equal(t, core.CanvasSize{Width: 1080, Height: 1920}, doc.Size)
	assert.Equal(t, "#ffffff", doc.Background.Color)
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestApplyTemplate_Unknown(t *testing.T) {
	s := newTestStore()
	s.AddElement(core.NewText("a"))

	err := ApplyTemplate(s, "Billboard")
	assert.True(t, errors.Is(err, ErrUnknownTemplate))
	assert.Len(t, s.Elements(), 1, "an unknown template must not touch the document")
}

func TestBuiltinTemplates(t *testing.T) {
	ts := Templates()
	require.Len(t, ts, 8)
	for _, tpl := range ts {
		assert.Positive(t, tpl.Width, tpl.Name)
		assert.Positive(t, tpl.Height, tpl.Name)
	}
	tpl, ok := LookupTemplate("Flyer A4")
	require.True(t, ok)
	assert.Equal(t, 794, tpl.Width)
	assert.Equal(t, 1123, tpl.Height)
}

func TestLoadTemplates(t *testing.T) {
	t.Cleanup(ResetTemplates)

	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `
templates:
  - name: Poster
    width: 1000
    height: 1400
    background: "#FAFAFA"
  - name: Banner
    width: 1600
    height: 400
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, LoadTemplates(path))

	poster, ok := LookupTemplate("Poster")
	require.True(t, ok)
	assert.Equal(t, "#fafafa", poster.Background)

	banner, ok := LookupTemplate("Banner")
	require.True(t, ok)
	assert.Equal(t, 1600, banner.Width)
	assert.Equal(t, core.DefaultBackgroundColor, banner.Background)

	assert.Len(t, Templates(), 9)
}

func TestLoadTemplates_Invalid(t *testing.T) {
	t.Cleanup(ResetTemplates)
	dir := t.TempDir()

	cases := map[string]string{
		"missing-name.yaml": "templates:\n  - width: 10\n    height: 10\n",
		"zero-size.yaml":    "templates:\n  - name: X\n    width: 0\n    height: 10\n",
		"bad-color.yaml":    "templates:\n  - name: X\n    width: 10\n    height: 10\n    background: blue\n",
		"not-yaml.yaml":     "templates: [",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		assert.Error(t, LoadTemplates(path), name)
	}
	assert.Len(t, Templates(), 8)

	assert.Error(t, LoadTemplates(filepath.Join(dir, "absent.yaml")))
}
