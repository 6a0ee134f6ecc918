package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ys(p Page) []float64 {
	out := make([]float64, len(p.Blocks))
	for i, b := range p.Blocks {
		out[i] = b.Y
	}
	return out
}

func TestPaginateBreaksBeforeFooter(t *testing.T) {
	l := DefaultLayout()
	blocks := []Block{
		{Kind: BlockParagraph, Height: 100},
		{Kind: BlockParagraph, Height: 100},
		{Kind: BlockParagraph, Height: 100},
	}

	pages := Paginate(blocks, l)
	require.Len(t, pages, 2)
	assert.Equal(t, []float64{0, 100}, ys(pages[0]))
	assert.Equal(t, []float64{l.TopMargin}, ys(pages[1]))
	assert.Equal(t, 2, pages[1].Number)
}

func TestPaginateKeepsHeaderWithNext(t *testing.T) {
	l := DefaultLayout()
	blocks := []Block{
		{Kind: BlockParagraph, Height: 200},
		{Kind: BlockSectionHeader, Height: 12, KeepWithNext: true},
		{Kind: BlockPhoto, Height: 72},
	}

	pages := Paginate(blocks, l)
	require.Len(t, pages, 2)
	require.Len(t, pages[0].Blocks, 1)
	assert.Equal(t, BlockSectionHeader, pages[1].Blocks[0].Kind)
	assert.Equal(t, []float64{l.TopMargin, l.TopMargin + 12}, ys(pages[1]))
}

func TestPaginateOversizedChainOnlyKeepsOwnHeight(t *testing.T) {
	l := DefaultLayout()
	blocks := []Block{
		{Kind: BlockParagraph, Height: 50},
		{Kind: BlockSectionHeader, Height: 12, KeepWithNext: true},
		{Kind: BlockParagraph, Height: l.Usable() + 10},
	}

	pages := Paginate(blocks, l)
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].Blocks, 2)
	assert.Equal(t, []float64{l.TopMargin}, ys(pages[1]))
}

func TestPaginateDropsSpacers(t *testing.T) {
	l := DefaultLayout()
	blocks := []Block{
		{Kind: BlockSpacer, Height: 8},
		{Kind: BlockParagraph, Height: 270},
		{Kind: BlockSpacer, Height: 8},
		{Kind: BlockParagraph, Height: 10},
	}

	pages := Paginate(blocks, l)
	require.Len(t, pages, 2)
	for _, p := range pages {
		for _, b := range p.Blocks {
			assert.NotEqual(t, BlockSpacer, b.Kind)
		}
	}
	assert.Equal(t, []float64{0}, ys(pages[0]))
	assert.Equal(t, []float64{l.TopMargin}, ys(pages[1]))
}

func TestPaginateNeverLeavesFirstBlockAlone(t *testing.T) {
	l := DefaultLayout()
	pages := Paginate([]Block{{Kind: BlockParagraph, Height: 400}}, l)
	require.Len(t, pages, 1)
	assert.Equal(t, []float64{0}, ys(pages[0]))
}

func TestPaginateIsDeterministic(t *testing.T) {
	l := DefaultLayout()
	var blocks []Block
	for i := 0; i < 40; i++ {
		blocks = append(blocks,
			Block{Kind: BlockSectionHeader, Height: l.SectionHeader, KeepWithNext: true},
			Block{Kind: BlockParagraph, Height: float64(5 + i%7*5)},
			Block{Kind: BlockSpacer, Height: l.SectionGap},
		)
	}

	first := Paginate(blocks, l)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Paginate(blocks, l))
	}
	for _, p := range first {
		for _, b := range p.Blocks {
			assert.LessOrEqual(t, b.Y+b.Height, l.Bottom())
		}
	}
}
