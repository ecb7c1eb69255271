package pdf

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// CleanText trims s and collapses every run of whitespace, including
// embedded newlines, into a single space. Multi-line name and address
// fields must pass through here before being measured.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextWidth returns the rendered width in points of the cleaned text, measured
// on the single byte encoding the core fonts are drawn with.
func TextWidth(text, fontName string, size int) float64 {
	return font.TextWidth(model.DecodeUTF8ToByte(CleanText(text)), fontName, size)
}

// CenteredX returns the x at which text must start to be centered on cx.
func CenteredX(cx float64, text, fontName string, size int) float64 {
	return cx - TextWidth(text, fontName, size)/2
}

// WrapText breaks the cleaned text into lines no wider than maxWidth. A
// single word wider than maxWidth gets a line of its own.
func WrapText(text, fontName string, size int, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if TextWidth(candidate, fontName, size) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
