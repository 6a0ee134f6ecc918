package report

import "time"

// RenderInput is everything a Renderer needs to draw a paginated report.
type RenderInput struct {
	Pages     []Page
	Layout    Layout
	Branding  string
	Title     string
	CreatedAt time.Time
}

// Renderer draws laid-out pages into a binary document.
type Renderer interface {
	// Measurer returns a Measurer matching the font the renderer uses for
	// paragraph text.
	Measurer() Measurer
	Render(in RenderInput) ([]byte, error)
	ContentType() string
	Extension() string
}
