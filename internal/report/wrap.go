package report

import "strings"

// Measurer reports the rendered width of a single line of text in
// millimetres, in the font used for notes.
type Measurer interface {
	Width(text string) float64
}

// Wrap breaks text into lines no wider than width. Explicit newlines are
// kept; words longer than a line are split by rune.
func Wrap(m Measurer, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if m.Width(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for m.Width(w) > width {
				head, tail := splitRunes(m, w, width)
				lines = append(lines, head)
				w = tail
			}
			line = w
		}
		lines = append(lines, line)
	}
	return trimBlank(lines)
}

// splitRunes returns the longest prefix of w that fits width (at least one
// rune) and the remainder.
func splitRunes(m Measurer, w string, width float64) (string, string) {
	runes := []rune(w)
	n := 1
	for n < len(runes) && m.Width(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}
