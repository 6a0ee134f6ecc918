package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily      = "Helvetica"
	bodyFontSize    = 10
	footerFontSize  = 9
	frameInsetMM    = 1.0
	titleBandMM     = 35
	infoBoxTopMM    = 45
	infoBoxHeightMM = 28
)

// PDFRenderer renders reports as A4 PDFs with go-pdf/fpdf using the core
// Helvetica font (cp1252).
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Extension() string { return "pdf" }

// Measurer measures with a scratch document so it never touches the one
// being rendered.
func (r *PDFRenderer) Measurer() Measurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont(fontFamily, "", bodyFontSize)
	return &pdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

type pdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (m *pdfMeasurer) Width(text string) float64 {
	return m.pdf.GetStringWidth(m.tr(text))
}

func (r *PDFRenderer) Render(in RenderInput) ([]byte, error) {
	l := in.Layout
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(l.MarginLeft, l.TopMargin, l.MarginLeft)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(in.CreatedAt)
	pdf.SetTitle(in.Title, true)
	pdf.SetCreator(in.Branding, true)

	d := &pdfDrawer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), l: l}
	for _, page := range in.Pages {
		pdf.AddPage()
		for _, pb := range page.Blocks {
			d.draw(pb)
		}
		d.footer(in.Branding, page.Number)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfDrawer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	l      Layout
	images int
}

func (d *pdfDrawer) draw(pb Placed) {
	x, y, w := d.l.MarginLeft, pb.Y, d.l.ContentWidth()
	switch pb.Kind {
	case BlockTitle:
		d.title(pb)
	case BlockInspectionHeader:
		d.pdf.SetFillColor(230, 240, 230)
		d.pdf.Rect(x, y, w, d.l.InspectionHeader-4, "F")
		d.text(x+2, y+7.5, "B", 12, pb.Text)
	case BlockSectionHeader:
		d.pdf.SetFillColor(240, 240, 240)
		d.pdf.Rect(x, y, w, d.l.SectionHeader-2, "F")
		d.text(x+2, y+7, "B", 12, pb.Text)
	case BlockNotesLabel, BlockPhotosLabel:
		d.text(x, y+4, "B", bodyFontSize, pb.Text)
	case BlockParagraph:
		for i, line := range pb.Lines {
			d.text(x, y+float64(i+1)*d.l.LineHeight-1, "", bodyFontSize, line)
		}
	case BlockPhoto, BlockSignature:
		d.image(x, y, pb)
	case BlockPlaceholder:
		d.pdf.SetTextColor(150, 150, 150)
		d.text(x, y+6, "I", bodyFontSize, pb.Text)
		d.pdf.SetTextColor(0, 0, 0)
	case BlockSignOffHeader:
		d.text(x, y+9, "B", 14, pb.Text)
	case BlockSignedDate:
		d.text(x, y+5, "", bodyFontSize, pb.Text)
	case BlockSpacer:
	}
}

func (d *pdfDrawer) title(pb Placed) {
	d.pdf.SetFillColor(46, 125, 50)
	d.pdf.Rect(0, 0, d.l.PageWidth, titleBandMM, "F")
	d.pdf.SetTextColor(255, 255, 255)
	d.centered(18, "B", 20, pb.Text)
	d.pdf.SetTextColor(0, 0, 0)

	d.pdf.SetDrawColor(180, 180, 180)
	d.pdf.Rect(d.l.MarginLeft, infoBoxTopMM, d.l.ContentWidth(), infoBoxHeightMM, "D")
	for i, line := range pb.Lines {
		d.text(d.l.MarginLeft+4, infoBoxTopMM+6+float64(i)*6, "", bodyFontSize, line)
	}
}

// image draws the asset scaled to fit its frame, keeping the aspect ratio,
// and a border around the frame.
func (d *pdfDrawer) image(x, y float64, pb Placed) {
	a := pb.Asset
	fw, fh := pb.Width, pb.ImageHeight

	d.images++
	name := fmt.Sprintf("img%d", d.images)
	opts := fpdf.ImageOptions{ImageType: imageType(a.Format)}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(a.Data))
	if d.pdf.Err() {
		// Undrawable despite decoding; keep the layout and show the placeholder.
		d.pdf.ClearError()
		d.text(x, y+6, "I", bodyFontSize, placeholderText)
		return
	}

	iw, ih := fw-2*frameInsetMM, fh-2*frameInsetMM
	if a.Width > 0 && a.Height > 0 {
		ratio := float64(a.Width) / float64(a.Height)
		if iw/ih > ratio {
			iw = ih * ratio
		} else {
			ih = iw / ratio
		}
	}
	ix := x + (fw-iw)/2
	iy := y + (fh-ih)/2
	d.pdf.ImageOptions(name, ix, iy, iw, ih, false, opts, 0, "")

	d.pdf.SetDrawColor(120, 120, 120)
	d.pdf.Rect(x, y, fw, fh, "D")
}

func (d *pdfDrawer) footer(branding string, page int) {
	y := d.l.PageHeight - d.l.FooterHeight/2
	d.pdf.SetTextColor(120, 120, 120)
	d.text(d.l.MarginLeft, y, "", footerFontSize, branding)
	label := fmt.Sprintf("Page %d", page)
	d.pdf.SetFont(fontFamily, "", footerFontSize)
	lw := d.pdf.GetStringWidth(label)
	d.pdf.Text(d.l.PageWidth-d.l.MarginLeft-lw, y, label)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDrawer) text(x, y float64, style string, size float64, s string) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.Text(x, y, d.tr(s))
}

func (d *pdfDrawer) centered(y float64, style string, size float64, s string) {
	d.pdf.SetFont(fontFamily, style, size)
	t := d.tr(s)
	d.pdf.Text((d.l.PageWidth-d.pdf.GetStringWidth(t))/2, y, t)
}

func imageType(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "PNG"
	case "gif":
		return "GIF"
	}
	return "JPG"
}
