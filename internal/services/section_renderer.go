package services

import (
	"fmt"

	"github.com/Lllllllleong/filingassembly/internal/models"
	"github.com/Lllllllleong/filingassembly/internal/pdf"
	"github.com/uniplaces/carbon"
)

type exhibitDefinition struct {
	title       string
	description string
}

var exhibitDefinitions = map[models.ExhibitID]exhibitDefinition{
	models.ExhibitA: {
		title:       "Identity Proof of the Applicant",
		description: "True copy of the government issued identity document of the applicant.",
	},
	models.ExhibitB: {
		title:       "Address Proof of the Applicant",
		description: "True copy of a document establishing the current residential address of the applicant.",
	},
	models.ExhibitC: {
		title:       "Correspondence Between the Parties",
		description: "True copies of the notices, letters and other correspondence exchanged between the parties.",
	},
	models.ExhibitD: {
		title:       "Supporting Financial Records",
		description: "True copies of the receipts, statements and other financial records relied upon by the applicant.",
	},
}

const (
	headingY       = 780.0
	bodyFontSize   = 11
	bodyLeading    = 16.0
	headingSize    = 16
	subheadingSize = 12
	blank          = "____________________"
	dateLayout     = "02 January 2006"
)

// source is an embeddable PDF whose pages were already counted.
type source struct {
	path  string
	data  []byte
	pages int
}

// assembly accumulates the parts of a filing in output order together with
// the running page count. Renderers only ever append.
type assembly struct {
	size  pdf.PaperSize
	parts [][]byte
	pages int
}

func newAssembly(size pdf.PaperSize) *assembly {
	return &assembly{size: size}
}

// nextPage is the absolute page number the next appended page will get.
func (a *assembly) nextPage() int { return a.pages + 1 }

func (a *assembly) appendGenerated(doc *pdf.Document) error {
	data, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	a.parts = append(a.parts, data)
	a.pages += doc.PageCount()
	return nil
}

func (a *assembly) appendSource(src source) {
	a.parts = append(a.parts, src.data)
	a.pages += src.pages
}

// filingParties is the text every section may print about the case.
type filingParties struct {
	user     models.UserData
	caseData models.CaseData
	date     *carbon.Carbon
}

func (f filingParties) applicantName() string { return orBlank(f.user.Name) }
func (f filingParties) applicantAddr() string { return orBlank(f.user.Address) }
func (f filingParties) respondentName() string { return orBlank(f.caseData.RespondentName) }
func (f filingParties) place() string { return orBlank(f.caseData.Place) }
func (f filingParties) filingDate() string { return f.date.Format(dateLayout) }

func (f filingParties) courtLine() string {
	return "IN THE COURT OF " + orBlank(f.caseData.CourtName)
}

func (f filingParties) caseLine() string {
	caseType := pdf.CleanText(f.caseData.CaseType)
	if caseType == "" {
		caseType = "Case"
	}
	return fmt.Sprintf("%s No. %s", caseType, orBlank(f.caseData.CaseNumber))
}

func orBlank(s string) string {
	if c := pdf.CleanText(s); c != "" {
		return c
	}
	return blank
}

func drawHeading(p *pdf.Page, title string) {
	p.CenteredText(headingY, pdf.FontBold, headingSize, title)
}

func drawCaption(p *pdf.Page, f filingParties, y float64) float64 {
	p.CenteredText(y, pdf.FontBold, subheadingSize, f.courtLine())
	y -= 18
	p.CenteredText(y, pdf.FontRegular, bodyFontSize, f.caseLine())
	return y - 2*bodyLeading
}

func paragraph(p *pdf.Page, size pdf.PaperSize, y float64, text string) float64 {
	return p.Paragraph(pageMarginX, y, size.Width-2*pageMarginX, pageMarginY, pdf.FontRegular, bodyFontSize, bodyLeading, text) - bodyLeading/2
}

func signatureBlock(p *pdf.Page, size pdf.PaperSize, y float64, lines ...string) {
	x := size.Width - pageMarginX - 180
	for _, l := range lines {
		p.Text(x, y, pdf.FontBold, bodyFontSize, l)
		y -= bodyLeading
	}
}

// renderCover draws the case caption and the index table. The page cells are
// left empty; they are stamped after every section has been rendered.
func renderCover(a *assembly, f filingParties) error {
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()

	y := drawCaption(p, f, headingY)
	p.CenteredText(y, pdf.FontBold, subheadingSize, f.applicantName())
	p.Text(a.size.Width-pageMarginX-90, y-bodyLeading, pdf.FontRegular, bodyFontSize, "... Applicant")
	y -= 2.5 * bodyLeading
	p.CenteredText(y, pdf.FontBold, bodyFontSize, "VERSUS")
	y -= 1.5 * bodyLeading
	p.CenteredText(y, pdf.FontBold, subheadingSize, f.respondentName())
	p.Text(a.size.Width-pageMarginX-90, y-bodyLeading, pdf.FontRegular, bodyFontSize, "... Respondent")

	p.CenteredText(indexTitleY, pdf.FontBold, 14, "INDEX")

	tableBottom := rowTop(len(indexLayout)-1) - indexRowHeight
	p.Rect(indexTableLeft, tableBottom, indexTableRight-indexTableLeft, indexHeaderTop-tableBottom)
	for _, x := range []float64{colParticularsLeft, colExhibitLeft, colPageLeft} {
		p.Line(x, tableBottom, x, indexHeaderTop)
	}
	p.Line(indexTableLeft, rowTop(0), indexTableRight, rowTop(0))

	hy := headerBaseline()
	p.Text(colSerialLeft+6, hy, pdf.FontBold, indexFontSize, "S.No.")
	p.Text(colParticularsLeft+6, hy, pdf.FontBold, indexFontSize, "Particulars")
	p.TextCenteredAt((colExhibitLeft+colPageLeft)/2, hy, pdf.FontBold, indexFontSize, "Exhibit")
	p.TextCenteredAt(pageColumnCenter(), hy, pdf.FontBold, indexFontSize, "Page No.")

	for i, row := range indexLayout {
		by := rowBaseline(i)
		p.TextCenteredAt((colSerialLeft+colParticularsLeft)/2, by, pdf.FontRegular, indexFontSize, fmt.Sprintf("%d.", i+1))
		p.Text(colParticularsLeft+6, by, pdf.FontRegular, indexFontSize, row.particulars)
		if row.exhibit != "" {
			p.TextCenteredAt((colExhibitLeft+colPageLeft)/2, by, pdf.FontRegular, indexFontSize, row.exhibit.Label())
		}
	}

	signatureBlock(p, a.size, tableBottom-3*bodyLeading, "Applicant", f.applicantName())
	p.Text(pageMarginX, tableBottom-3*bodyLeading, pdf.FontRegular, bodyFontSize, "Place: "+f.place())
	p.Text(pageMarginX, tableBottom-4*bodyLeading, pdf.FontRegular, bodyFontSize, "Date: "+f.filingDate())
	return a.appendGenerated(doc)
}

// renderApplication embeds every page of the application form after a heading
// page, or renders a single placeholder page when app is nil.
func renderApplication(a *assembly, f filingParties, app *source) error {
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()
	drawHeading(p, "APPLICATION")
	y := drawCaption(p, f, headingY-40)
	if app == nil {
		paragraph(p, a.size, y, "The application form has not been provided or could not be read. "+
			"The application shall be filed separately and placed at this position in the record.")
		return a.appendGenerated(doc)
	}
	paragraph(p, a.size, y, fmt.Sprintf("Application of %s, annexed hereto (%d pages).", f.applicantName(), app.pages))
	if err := a.appendGenerated(doc); err != nil {
		return err
	}
	a.appendSource(*app)
	return nil
}

// renderListOfDocuments draws the fixed checklist page.
func renderListOfDocuments(a *assembly, f filingParties) error {
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()
	drawHeading(p, "LIST OF DOCUMENTS")
	y := drawCaption(p, f, headingY-40)

	items := []string{"Application"}
	for _, id := range models.Exhibits {
		items = append(items, fmt.Sprintf("%s: %s", id, exhibitDefinitions[id].title))
	}
	items = append(items, "Memorandum of Parties", "Affidavit in Support of the Application", "Vakalatnama")

	for i, item := range items {
		p.Rect(pageMarginX, y-2, 10, 10)
		p.Text(pageMarginX+20, y, pdf.FontRegular, bodyFontSize, fmt.Sprintf("%d. %s", i+1, item))
		y -= 1.5 * bodyLeading
	}
	y -= bodyLeading
	paragraph(p, a.size, y, "The applicant states that the documents listed above are filed along with the application "+
		"and that copies have been retained for service upon the respondent.")
	signatureBlock(p, a.size, pageMarginY+3*bodyLeading, "Applicant", f.applicantName())
	return a.appendGenerated(doc)
}

// renderExhibit draws the heading and description page of exhibit id and
// embeds srcs after it. Without sources the heading page carries a notice
// and is the only page of the exhibit.
func renderExhibit(a *assembly, id models.ExhibitID, srcs []source) error {
	def := exhibitDefinitions[id]
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()
	drawHeading(p, fmt.Sprintf("EXHIBIT %s", id.Label()))
	p.CenteredText(headingY-30, pdf.FontBold, subheadingSize, def.title)
	y := paragraph(p, a.size, headingY-70, def.description)
	if len(srcs) == 0 {
		p.CenteredText(y-bodyLeading, pdf.FontRegular, bodyFontSize, "No documents attached.")
	}
	if err := a.appendGenerated(doc); err != nil {
		return err
	}
	for _, src := range srcs {
		a.appendSource(src)
	}
	return nil
}

func renderMemorandum(a *assembly, f filingParties) error {
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()
	drawHeading(p, "MEMORANDUM OF PARTIES")
	y := drawCaption(p, f, headingY-40)

	y = paragraph(p, a.size, y, fmt.Sprintf("1. %s, residing at %s.", f.applicantName(), f.applicantAddr()))
	p.Text(a.size.Width-pageMarginX-90, y, pdf.FontRegular, bodyFontSize, "... Applicant")
	y -= 2 * bodyLeading
	p.CenteredText(y, pdf.FontBold, bodyFontSize, "VERSUS")
	y -= 2 * bodyLeading
	y = paragraph(p, a.size, y, fmt.Sprintf("2. %s, residing at %s.", f.respondentName(), orBlank(f.caseData.RespondentAddress)))
	p.Text(a.size.Width-pageMarginX-90, y, pdf.FontRegular, bodyFontSize, "... Respondent")

	p.Text(pageMarginX, pageMarginY+4*bodyLeading, pdf.FontRegular, bodyFontSize, "Place: "+f.place())
	p.Text(pageMarginX, pageMarginY+3*bodyLeading, pdf.FontRegular, bodyFontSize, "Date: "+f.filingDate())
	signatureBlock(p, a.size, pageMarginY+4*bodyLeading, "Applicant", f.applicantName())
	return a.appendGenerated(doc)
}

func renderAffidavit(a *assembly, f filingParties) error {
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()
	drawHeading(p, "AFFIDAVIT")
	y := drawCaption(p, f, headingY-40)

	y = paragraph(p, a.size, y, fmt.Sprintf("I, %s, residing at %s, do hereby solemnly affirm and state as under:",
		f.applicantName(), f.applicantAddr()))
	for _, para := range []string{
		"1. That I am the applicant in the above matter and am well conversant with the facts of the case, and am therefore competent to swear this affidavit.",
		"2. That the accompanying application has been drafted under my instructions and its contents are true and correct to my knowledge and belief.",
		"3. That the documents annexed as Exhibits A to D are true copies of their respective originals.",
	} {
		y = paragraph(p, a.size, y, para)
	}
	signatureBlock(p, a.size, y-bodyLeading, "DEPONENT")
	y -= 4 * bodyLeading

	p.CenteredText(y, pdf.FontBold, subheadingSize, "VERIFICATION")
	y = paragraph(p, a.size, y-1.5*bodyLeading, fmt.Sprintf("Verified at %s on %s that the contents of paragraphs 1 to 3 of this affidavit "+
		"are true and correct to my knowledge, that no part of it is false and that nothing material has been concealed therefrom.",
		f.place(), f.filingDate()))
	signatureBlock(p, a.size, y-bodyLeading, "DEPONENT", f.applicantName())
	return a.appendGenerated(doc)
}

func renderVakalatnama(a *assembly, f filingParties) error {
	doc := pdf.NewDocument(a.size)
	p := doc.AddPage()
	drawHeading(p, "VAKALATNAMA")
	y := drawCaption(p, f, headingY-40)

	advocate := pdf.CleanText(f.caseData.AdvocateName)
	if advocate == "" {
		advocate = "the Advocate named below"
	} else {
		advocate = "Advocate " + advocate
	}
	y = paragraph(p, a.size, y, fmt.Sprintf("I, %s, residing at %s, the applicant in the above matter, do hereby appoint and retain %s "+
		"to appear, plead and act for me in the above matter, to file and withdraw documents, and to conduct all proceedings connected therewith. "+
		"I agree to ratify all acts done by the said Advocate in pursuance of this authority.",
		f.applicantName(), f.applicantAddr(), advocate))
	y = paragraph(p, a.size, y, fmt.Sprintf("Executed at %s on %s.", f.place(), f.filingDate()))

	y -= 2 * bodyLeading
	p.Text(pageMarginX, y, pdf.FontBold, bodyFontSize, "Accepted")
	p.Text(pageMarginX, y-bodyLeading, pdf.FontRegular, bodyFontSize, "Advocate")
	signatureBlock(p, a.size, y, "Executant", f.applicantName())
	return a.appendGenerated(doc)
}
