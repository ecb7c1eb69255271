package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/create"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/draw"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PaperSize is a page size in points (1" = 72pt).
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	A4     = paperSize("A4")
	Letter = paperSize("Letter")
)

func paperSize(name string) PaperSize {
	d := types.PaperSize[name]
	return PaperSize{Name: name, Width: d.Width, Height: d.Height}
}

// Core fonts available to every generated page.
const (
	FontRegular = "Helvetica"
	FontBold    = "Helvetica-Bold"
)

const strokeWidth = 0.75

// ErrNoPages is returned when serializing a document that has no pages.
var ErrNoPages = errors.New("document has no pages")

// Document is an append-only builder for generated pages. Pages stay editable
// until Bytes is called.
type Document struct {
	size  PaperSize
	pages []*Page
}

// NewDocument creates an empty document whose pages all share size.
func NewDocument(size PaperSize) *Document {
	return &Document{size: size}
}

func (d *Document) PageCount() int { return len(d.pages) }

// AddPage appends a blank page and returns it for drawing.
func (d *Document) AddPage() *Page {
	box := types.RectForDim(d.size.Width, d.size.Height)
	p := &Page{size: d.size, page: model.NewPage(box, box)}
	d.pages = append(d.pages, p)
	return p
}

// Bytes writes the pages into a fresh pdfcpu context and serializes it.
func (d *Document) Bytes() ([]byte, error) {
	if len(d.pages) == 0 {
		return nil, ErrNoPages
	}

	conf := Configuration()
	conf.Cmd = model.CREATE
	ctx, err := pdfcpu.CreateContextWithXRefTable(conf, &types.Dim{Width: d.size.Width, Height: d.size.Height})
	if err != nil {
		return nil, fmt.Errorf("failed to create document context: %w", err)
	}

	pages := make([]*model.Page, len(d.pages))
	fonts := model.FontMap{}
	for i, p := range d.pages {
		for name := range p.page.Fm {
			fonts[name] = model.FontResource{}
		}
		pages[i] = &p.page
	}
	if _, _, err := create.UpdatePageTree(ctx, pages, fonts); err != nil {
		return nil, fmt.Errorf("failed to build page tree: %w", err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}

// Page collects drawing operators for one page. Coordinates have their
// origin at the lower left corner.
type Page struct {
	size PaperSize
	page model.Page
}

// Text draws a single line of text with its baseline starting at (x, y).
// Fonts other than the core fonts fall back to FontRegular.
func (p *Page) Text(x, y float64, fontName string, size int, text string) {
	if !font.IsCoreFont(fontName) {
		fontName = FontRegular
	}
	td := model.TextDescriptor{
		Text:     singleLine(text),
		FontName: fontName,
		FontKey:  p.page.Fm.EnsureKey(fontName),
		FontSize: size,
		X:        x,
		Y:        y,
		Scale:    1,
		ScaleAbs: true,
	}
	model.WriteMultiLine(nil, p.page.Buf, p.page.MediaBox, nil, td)
}

// TextCenteredAt draws the cleaned text centered horizontally on cx.
func (p *Page) TextCenteredAt(cx, y float64, fontName string, size int, text string) {
	clean := CleanText(text)
	p.Text(CenteredX(cx, clean, fontName, size), y, fontName, size, clean)
}

// CenteredText draws the cleaned text centered on the page width.
func (p *Page) CenteredText(y float64, fontName string, size int, text string) {
	p.TextCenteredAt(p.size.Width/2, y, fontName, size, text)
}

// Paragraph wraps text into lines no wider than width and draws them from
// y downwards. Lines that would fall below minY are dropped. It returns the
// baseline for the next line.
func (p *Page) Paragraph(x, y, width, minY float64, fontName string, size int, leading float64, text string) float64 {
	for _, line := range WrapText(text, fontName, size, width) {
		if y < minY {
			break
		}
		p.Text(x, y, fontName, size, line)
		y -= leading
	}
	return y
}

func (p *Page) Line(x1, y1, x2, y2 float64) {
	draw.DrawLine(p.page.Buf, x1, y1, x2, y2, strokeWidth, &color.Black, nil)
}

func (p *Page) Rect(x, y, w, h float64) {
	draw.DrawRect(p.page.Buf, types.RectForWidthAndHeight(x, y, w, h), strokeWidth, &color.Black, nil)
}

// singleLine keeps text on one line: pdfcpu breaks columns on line feeds,
// including the two character sequence `\n`.
func singleLine(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r < 0x20:
			return -1
		}
		return r
	}, s)
	return strings.ReplaceAll(s, `\n`, `\ n`)
}
