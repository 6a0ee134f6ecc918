package report

import "fmt"

const (
	dateFormat         = "02-01-2006"
	placeholderText    = "image unavailable"
	signOffTitle       = "Customer sign-off"
	notesLabelText     = "Notes:"
	signatureLabelText = "Signature:"
)

type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockInspectionHeader
	BlockSectionHeader
	BlockNotesLabel
	BlockParagraph
	BlockPhotosLabel
	BlockPhoto
	BlockPlaceholder
	BlockSpacer
	BlockSignOffHeader
	BlockSignature
	BlockSignedDate
)

// Block is one unit of vertical layout. Height is fixed by the Layout and
// the wrapped line count, never by the renderer.
type Block struct {
	Kind   BlockKind
	Height float64
	Text   string
	// Lines holds wrapped paragraph text, or the info lines of the title.
	Lines []string
	Asset *Asset
	// Width and ImageHeight size the frame of photo and signature blocks.
	Width       float64
	ImageHeight float64
	// KeepWithNext moves the block to a new page together with its
	// successor when both do not fit.
	KeepWithNext bool
}

type composer struct {
	layout   Layout
	measurer Measurer
	blocks   []Block
}

// compose flattens a plan into blocks. assets holds one entry per key of
// assetKeys(plan), in the same order.
func compose(plan *Plan, assets []*Asset, layout Layout, m Measurer, generated string) []Block {
	c := &composer{layout: layout, measurer: m}
	c.add(Block{Kind: BlockTitle, Height: layout.HeaderHeight, Text: title(plan.Kind), Lines: infoLines(plan, generated)})

	photoW, photoH := layout.PhotoWidth, layout.PhotoHeight
	if plan.Kind != KindInspection {
		photoW, photoH = layout.CompactPhotoWidth, layout.CompactPhotoHeight
	}

	next := 0
	for i, pi := range plan.Inspections {
		if i > 0 {
			c.spacer(layout.InspectionGap)
		}
		if plan.Kind != KindInspection {
			c.add(Block{
				Kind:         BlockInspectionHeader,
				Height:       layout.InspectionHeader,
				Text:         inspectionHeading(pi),
				KeepWithNext: true,
			})
		}
		for j, sec := range pi.Sections {
			if j > 0 {
				c.spacer(layout.SectionGap)
			}
			c.add(Block{Kind: BlockSectionHeader, Height: layout.SectionHeader, Text: sec.Type.Label(), KeepWithNext: true})
			if sec.Notes != "" {
				c.add(Block{Kind: BlockNotesLabel, Height: layout.NotesLabel, Text: notesLabelText, KeepWithNext: true})
				c.paragraph(sec.Notes)
			}
			if len(sec.Photos) == 0 {
				continue
			}
			c.add(Block{Kind: BlockPhotosLabel, Height: layout.PhotosLabel, Text: fmt.Sprintf("Photos (%d):", len(sec.Photos)), KeepWithNext: true})
			for range sec.Photos {
				c.image(assets[next], photoW, photoH)
				next++
			}
		}
	}

	if so := plan.SignOff; so != nil {
		c.spacer(layout.InspectionGap)
		c.add(Block{Kind: BlockSignOffHeader, Height: layout.SignOffHeader, Text: signOffTitle, KeepWithNext: true})
		if so.Comment != "" {
			c.paragraph(so.Comment)
		}
		if so.SignatureKey != "" {
			c.add(Block{Kind: BlockNotesLabel, Height: layout.NotesLabel, Text: signatureLabelText, KeepWithNext: true})
			a := assets[next]
			if a.Available() {
				c.add(Block{
					Kind:        BlockSignature,
					Height:      layout.SignatureHeight + layout.ParagraphGap,
					Asset:       a,
					Width:       layout.SignatureWidth,
					ImageHeight: layout.SignatureHeight,
				})
			} else {
				c.add(Block{Kind: BlockPlaceholder, Height: layout.Placeholder, Text: placeholderText, Asset: a})
			}
		}
		if so.SignedAt != nil {
			c.add(Block{Kind: BlockSignedDate, Height: layout.SignedDate, Text: "Signed on " + so.SignedAt.Format(dateFormat)})
		}
	}
	return c.blocks
}

func (c *composer) add(b Block) {
	c.blocks = append(c.blocks, b)
}

func (c *composer) spacer(h float64) {
	c.add(Block{Kind: BlockSpacer, Height: h})
}

// paragraph wraps text and splits it into chunks that each fit on an empty
// continuation page.
func (c *composer) paragraph(text string) {
	lines := Wrap(c.measurer, text, c.layout.ContentWidth())
	if len(lines) == 0 {
		return
	}
	perPage := int((c.layout.Usable() - c.layout.ParagraphGap) / c.layout.LineHeight)
	if perPage < 1 {
		perPage = 1
	}
	for len(lines) > 0 {
		n := min(perPage, len(lines))
		chunk := lines[:n]
		lines = lines[n:]
		h := float64(len(chunk)) * c.layout.LineHeight
		if len(lines) == 0 {
			h += c.layout.ParagraphGap
		}
		c.add(Block{Kind: BlockParagraph, Height: h, Lines: chunk})
	}
}

func (c *composer) image(a *Asset, w, h float64) {
	if !a.Available() {
		c.add(Block{Kind: BlockPlaceholder, Height: c.layout.Placeholder, Text: placeholderText, Asset: a})
		return
	}
	c.add(Block{Kind: BlockPhoto, Height: h + c.layout.PhotoGap, Asset: a, Width: w, ImageHeight: h})
}

// assetKeys lists every blob the report embeds, in the order compose
// consumes them: photos by inspection, section and upload, then the
// signature.
func assetKeys(plan *Plan) []string {
	var keys []string
	for _, pi := range plan.Inspections {
		for _, sec := range pi.Sections {
			for _, p := range sec.Photos {
				keys = append(keys, p.StorageKey)
			}
		}
	}
	if plan.SignOff != nil && plan.SignOff.SignatureKey != "" {
		keys = append(keys, plan.SignOff.SignatureKey)
	}
	return keys
}

func title(k Kind) string {
	switch k {
	case KindZone:
		return "Zone report"
	case KindSite:
		return "Site report"
	}
	return "Inspection report"
}

func infoLines(plan *Plan, generated string) []string {
	lines := []string{"Client: " + plan.Client.Name}
	site := "Site: " + plan.Site.Name
	if plan.Site.Address != "" {
		site += ", " + plan.Site.Address
	}
	lines = append(lines, site)

	switch plan.Kind {
	case KindInspection:
		pi := plan.Inspections[0]
		lines = append(lines,
			"Zone: "+pi.Zone.Name,
			"Inspection date: "+pi.Inspection.InspectionDate.Format(dateFormat))
	case KindZone:
		lines = append(lines,
			"Zone: "+plan.Zone.Name,
			fmt.Sprintf("Inspections: %d, generated %s", len(plan.Inspections), generated))
	case KindSite:
		lines = append(lines, fmt.Sprintf("Inspections: %d, generated %s", len(plan.Inspections), generated))
	}
	return lines
}

func inspectionHeading(pi *PlannedInspection) string {
	return fmt.Sprintf("%s - %s", pi.Zone.Name, pi.Inspection.InspectionDate.Format(dateFormat))
}

// countUnavailable reports how many assets will render as placeholders.
func countUnavailable(assets []*Asset) int {
	n := 0
	for _, a := range assets {
		if !a.Available() {
			n++
		}
	}
	return n
}
