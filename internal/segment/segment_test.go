package segment

import (
	"strings"
	"testing"

	"github.com/dgallion1/docrank/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(pages ...[]string) *doctree.Document {
	d := &doctree.Document{Name: "guide.pdf"}
	for i, lines := range pages {
		d.Pages = append(d.Pages, doctree.Page{Number: i + 1, Lines: lines})
	}
	return d
}

func TestBlocks(t *testing.T) {
	t.Run("double blank line splits", func(t *testing.T) {
		blocks := Blocks(doc([]string{"Intro", "body one", "", "", "Next", "body two"}))
		require.Len(t, blocks, 2)
		assert.Equal(t, "Intro\nbody one", blocks[0].Text)
		assert.Equal(t, "Next\nbody two", blocks[1].Text)
	})

	t.Run("single blank line stays inside block", func(t *testing.T) {
		blocks := Blocks(doc([]string{"para one", "", "para two"}))
		require.Len(t, blocks, 1)
		assert.Equal(t, "para one\n\npara two", blocks[0].Text)
	})

	t.Run("whitespace-only lines count as blank", func(t *testing.T) {
		blocks := Blocks(doc([]string{"a", "  ", "\t", "b", " ", "c"}))
		require.Len(t, blocks, 2)
		assert.Equal(t, "a", blocks[0].Text)
		assert.Equal(t, "b\n\nc", blocks[1].Text)
	})

	t.Run("long blank runs produce no empty blocks", func(t *testing.T) {
		blocks := Blocks(doc([]string{"", "", "a", "", "", "", "", "b", "", ""}))
		require.Len(t, blocks, 2)
		assert.Equal(t, "a", blocks[0].Text)
		assert.Equal(t, "b", blocks[1].Text)
	})

	t.Run("page end flushes and blocks carry page numbers", func(t *testing.T) {
		blocks := Blocks(doc([]string{"first page text"}, []string{"second page text"}))
		require.Len(t, blocks, 2)
		assert.Equal(t, 1, blocks[0].Page)
		assert.Equal(t, 2, blocks[1].Page)
		assert.Equal(t, "guide.pdf", blocks[1].Document)
	})

	t.Run("empty document", func(t *testing.T) {
		assert.Empty(t, Blocks(doc()))
		assert.Empty(t, Blocks(doc([]string{"", " "})))
	})
}

func TestTitleCandidacy(t *testing.T) {
	tenWords := strings.TrimSpace(strings.Repeat("word ", 10))
	elevenWords := tenWords + " more"

	blocks := Blocks(doc([]string{
		"  Coastal Adventures  ", "Kayaking and sailing along the coast.", "", "",
		tenWords, "body", "", "",
		elevenWords, "body",
	}))
	require.Len(t, blocks, 3)

	assert.True(t, blocks[0].IsTitleCandidate)
	assert.Equal(t, "Coastal Adventures", blocks[0].TitleLine)

	assert.True(t, blocks[1].IsTitleCandidate)
	assert.Equal(t, tenWords, blocks[1].TitleLine)

	assert.False(t, blocks[2].IsTitleCandidate)
	assert.Empty(t, blocks[2].TitleLine)
}

func TestIsTitleLine(t *testing.T) {
	assert.False(t, IsTitleLine(""))
	assert.False(t, IsTitleLine("   "))
	assert.True(t, IsTitleLine("One"))
}
