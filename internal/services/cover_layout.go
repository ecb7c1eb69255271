package services

import (
	"strconv"

	"github.com/Lllllllleong/filingassembly/internal/models"
	"github.com/Lllllllleong/filingassembly/internal/pdf"
)

// Cover page geometry in points. The index table is drawn in pass one with
// empty page cells; pass two stamps numbers into the same cells, so nothing
// here may depend on the numbers themselves.
const (
	pageMarginX = 50.0
	pageMarginY = 60.0

	indexTitleY      = 630.0
	indexTableLeft   = 50.0
	indexTableRight  = 545.0
	indexHeaderTop   = 610.0
	indexRowHeight   = 24.0
	indexBaselinePad = 16.0

	colSerialLeft      = indexTableLeft
	colParticularsLeft = 95.0
	colExhibitLeft     = 400.0
	colPageLeft        = 470.0

	// The page column is wide enough for four digits at indexFontSize.
	pageNumberMaxDigits = 4
	indexFontSize       = 11
)

// IndexRow is one line of the cover index as it appears in the final output.
type IndexRow struct {
	Serial       int
	Particulars  string
	ExhibitLabel string
	Page         int
}

type indexRowLayout struct {
	section     models.Section
	particulars string
	exhibit     models.ExhibitID
}

// indexLayout is the fixed content of the nine index rows, top to bottom.
var indexLayout = []indexRowLayout{
	{section: models.SectionApplication, particulars: "Application"},
	{section: models.SectionListOfDocuments, particulars: "List of Documents"},
	{section: models.SectionExhibitA, particulars: exhibitDefinitions[models.ExhibitA].title, exhibit: models.ExhibitA},
	{section: models.SectionExhibitB, particulars: exhibitDefinitions[models.ExhibitB].title, exhibit: models.ExhibitB},
	{section: models.SectionExhibitC, particulars: exhibitDefinitions[models.ExhibitC].title, exhibit: models.ExhibitC},
	{section: models.SectionExhibitD, particulars: exhibitDefinitions[models.ExhibitD].title, exhibit: models.ExhibitD},
	{section: models.SectionMemorandum, particulars: "Memorandum of Parties"},
	{section: models.SectionAffidavit, particulars: "Affidavit in Support of the Application"},
	{section: models.SectionVakalatnama, particulars: "Vakalatnama"},
}

// rowTop is the upper edge of index row i (0-based, below the header).
func rowTop(i int) float64 {
	return indexHeaderTop - indexRowHeight*float64(i+1)
}

func rowBaseline(i int) float64 {
	return rowTop(i) - indexBaselinePad
}

func headerBaseline() float64 {
	return indexHeaderTop - indexBaselinePad
}

func pageColumnCenter() float64 {
	return (colPageLeft + indexTableRight) / 2
}

// pageNumberStamp places n centered in the reserved page cell of row i.
func pageNumberStamp(i, n int) pdf.Stamp {
	text := strconv.Itoa(n)
	return pdf.Stamp{
		Text:     text,
		X:        pdf.CenteredX(pageColumnCenter(), text, pdf.FontRegular, indexFontSize),
		Y:        rowBaseline(i),
		FontName: pdf.FontRegular,
		FontSize: indexFontSize,
	}
}
