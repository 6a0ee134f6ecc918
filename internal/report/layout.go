package report

// Layout holds the fixed page geometry, in millimetres. Block heights come
// from here rather than from rendered content, so pagination can be
// computed and tested without a rendering backend.
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	TopMargin    float64
	FooterHeight float64

	HeaderHeight     float64 // title band and info box on the first page
	InspectionHeader float64
	SectionHeader    float64
	NotesLabel       float64
	LineHeight       float64
	ParagraphGap     float64
	PhotosLabel      float64

	PhotoWidth         float64
	PhotoHeight        float64
	CompactPhotoWidth  float64 // zone and site reports
	CompactPhotoHeight float64
	PhotoGap           float64
	Placeholder        float64

	SectionGap    float64
	InspectionGap float64

	SignOffHeader   float64
	SignatureWidth  float64
	SignatureHeight float64
	SignedDate      float64
}

// DefaultLayout is an A4 portrait page.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:    210,
		PageHeight:   297,
		MarginLeft:   20,
		TopMargin:    20,
		FooterHeight: 20,

		HeaderHeight:     80,
		InspectionHeader: 16,
		SectionHeader:    12,
		NotesLabel:       6,
		LineHeight:       5,
		ParagraphGap:     8,
		PhotosLabel:      7,

		PhotoWidth:         85,
		PhotoHeight:        64,
		CompactPhotoWidth:  75,
		CompactPhotoHeight: 56,
		PhotoGap:           8,
		Placeholder:        10,

		SectionGap:    8,
		InspectionGap: 12,

		SignOffHeader:   15,
		SignatureWidth:  80,
		SignatureHeight: 40,
		SignedDate:      8,
	}
}

// ContentWidth is the width available to wrapped text.
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.MarginLeft
}

// Bottom is the lowest y a block may reach before the footer.
func (l Layout) Bottom() float64 {
	return l.PageHeight - l.FooterHeight
}

// Usable is the vertical space of a continuation page.
func (l Layout) Usable() float64 {
	return l.Bottom() - l.TopMargin
}
