package report

// Placed is a block positioned on a page. Y is the top edge in mm.
type Placed struct {
	Block
	Y float64
}

type Page struct {
	Number int
	Blocks []Placed
}

// Paginate assigns blocks to pages with a single cursor walk. A block that
// would cross the footer, together with any KeepWithNext successors, starts
// a new page at TopMargin. Spacers that do not fit are dropped, as are
// spacers that would open a page. The first page starts at zero because the
// title block carries its own margin. The result depends only on block
// heights and the layout.
func Paginate(blocks []Block, l Layout) []Page {
	pages := []Page{{Number: 1}}
	y := 0.0
	bottom := l.Bottom()

	for i, b := range blocks {
		cur := &pages[len(pages)-1]

		if b.Kind == BlockSpacer {
			if len(cur.Blocks) == 0 || y+b.Height > bottom {
				continue
			}
			cur.Blocks = append(cur.Blocks, Placed{Block: b, Y: y})
			y += b.Height
			continue
		}

		need := chainHeight(blocks, i)
		if need > l.Usable() {
			need = b.Height
		}
		if y+need > bottom && len(cur.Blocks) > 0 {
			pages = append(pages, Page{Number: len(pages) + 1})
			cur = &pages[len(pages)-1]
			y = l.TopMargin
		}
		cur.Blocks = append(cur.Blocks, Placed{Block: b, Y: y})
		y += b.Height
	}
	return pages
}

// chainHeight is the height of blocks[i] plus every successor it is kept
// with.
func chainHeight(blocks []Block, i int) float64 {
	h := 0.0
	for j := i; j < len(blocks); j++ {
		h += blocks[j].Height
		if !blocks[j].KeepWithNext {
			break
		}
	}
	return h
}
