package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/filingassembly/internal/models"
	"github.com/Lllllllleong/filingassembly/internal/pdf"
	"github.com/uniplaces/carbon"
)

// ComposerConfig holds the tunables of the document composer.
type ComposerConfig struct {
	PaperSize    pdf.PaperSize
	ParseTimeout time.Duration
	Concurrency  int
}

// DefaultComposerConfig is A4 with a 30s parse bound and 4 parallel reads.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		PaperSize:    pdf.A4,
		ParseTimeout: 30 * time.Second,
		Concurrency:  4,
	}
}

// Composer assembles court filings. It keeps no state between calls and is
// safe for concurrent use.
type Composer struct {
	store  FileStore
	config ComposerConfig
}

// NewComposer creates a Composer reading exhibit files from store.
func NewComposer(store FileStore, config ComposerConfig) *Composer {
	if config.PaperSize.Width == 0 {
		config.PaperSize = pdf.A4
	}
	return &Composer{store: store, config: config}
}

// Filing is a composed court document with its layout facts.
type Filing struct {
	Content      []byte
	PageCount    int
	SectionPages map[models.Section]int
	Index        []IndexRow
	Diagnostics  []Diagnostic
}

// sectionStep renders one tracked section.
type sectionStep struct {
	section models.Section
	render  func() error
}

// GenerateCourtDocument composes the filing and returns its bytes.
func (c *Composer) GenerateCourtDocument(ctx context.Context, user models.UserData, caseData models.CaseData, application []byte, exhibits models.ExhibitFiles) ([]byte, error) {
	filing, err := c.Compose(ctx, user, caseData, application, exhibits)
	if err != nil {
		return nil, err
	}
	return filing.Content, nil
}

// Compose renders every section in fixed order while tracking where each
// one starts, then stamps those page numbers into the cover index. Missing or
// unreadable inputs become placeholder pages; only a failure to produce the
// final bytes is returned as an error.
func (c *Composer) Compose(ctx context.Context, user models.UserData, caseData models.CaseData, application []byte, exhibits models.ExhibitFiles) (*Filing, error) {
	logCtx := slog.With("caseNumber", caseData.CaseNumber)
	logCtx.Info("Composing court filing.")

	var diags []Diagnostic
	app, diag := c.loadApplication(ctx, application)
	if diag != nil {
		diags = append(diags, *diag)
		logCtx.Warn("Application form replaced by placeholder.", "error", diag.Err)
	}
	exhibitSources, exhibitDiags := c.loadExhibits(ctx, exhibits)
	for _, d := range exhibitDiags {
		logCtx.Warn("Skipping exhibit attachment.", "path", d.Path, "error", d.Err)
	}
	diags = append(diags, exhibitDiags...)

	parties := filingParties{user: user, caseData: caseData, date: filingDate(caseData)}
	a := newAssembly(c.config.PaperSize)
	tracker := NewPageTracker()

	if err := renderCover(a, parties); err != nil {
		return nil, err
	}
	steps := []sectionStep{
		{models.SectionApplication, func() error { return renderApplication(a, parties, app) }},
		{models.SectionListOfDocuments, func() error { return renderListOfDocuments(a, parties) }},
	}
	for _, id := range models.Exhibits {
		id := id
		steps = append(steps, sectionStep{models.ExhibitSection(id), func() error { return renderExhibit(a, id, exhibitSources[id]) }})
	}
	steps = append(steps,
		sectionStep{models.SectionMemorandum, func() error { return renderMemorandum(a, parties) }},
		sectionStep{models.SectionAffidavit, func() error { return renderAffidavit(a, parties) }},
		sectionStep{models.SectionVakalatnama, func() error { return renderVakalatnama(a, parties) }},
	)

	for _, step := range steps {
		if err := tracker.Record(step.section, a.nextPage()); err != nil {
			return nil, err
		}
		if err := step.render(); err != nil {
			logCtx.Error("Failed to render section", "section", step.section, "error", err)
			return nil, err
		}
	}

	merged, err := pdf.Merge(a.parts)
	if err != nil {
		logCtx.Error("Failed to assemble filing", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	stamps, index := backfillIndex(tracker)
	for _, row := range index {
		if len(strconv.Itoa(row.Page)) > pageNumberMaxDigits {
			logCtx.Warn("Page number exceeds the reserved index cell.", "section", row.Particulars, "page", row.Page)
		}
	}
	content, err := pdf.StampPage(merged, 1, stamps)
	if err != nil {
		logCtx.Error("Failed to back-fill the cover index", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	logCtx.Info("Court filing composed.", "pageCount", a.pages, "diagnostics", len(diags))
	return &Filing{
		Content:      content,
		PageCount:    a.pages,
		SectionPages: tracker.Snapshot(),
		Index:        index,
		Diagnostics:  diags,
	}, nil
}

func (c *Composer) loadApplication(ctx context.Context, application []byte) (*source, *Diagnostic) {
	if len(application) == 0 {
		return nil, &Diagnostic{Path: "application", Err: ErrMissingOptionalSection}
	}
	pages, err := inspect(ctx, application, c.config.ParseTimeout)
	if err != nil {
		return nil, &Diagnostic{Path: "application", Err: fmt.Errorf("%w: %v", ErrUnparsableSource, err)}
	}
	return &source{path: "application", data: application, pages: pages}, nil
}

// loadExhibits returns, per exhibit, the attachments that will be embedded
// in their given order. Non-PDF attachments are skipped with a diagnostic.
func (c *Composer) loadExhibits(ctx context.Context, exhibits models.ExhibitFiles) (map[models.ExhibitID][]source, []Diagnostic) {
	type ref struct {
		id   models.ExhibitID
		path string
	}
	var refs []ref
	var paths []string
	var diags []Diagnostic
	for _, id := range models.Exhibits {
		for _, f := range exhibits[id] {
			if !isPDF(f.FileType) {
				diags = append(diags, Diagnostic{Path: f.FilePath, Err: fmt.Errorf("%w: %s in %s", ErrUnsupportedType, f.FileType, id)})
				continue
			}
			refs = append(refs, ref{id: id, path: f.FilePath})
			paths = append(paths, f.FilePath)
		}
	}

	out := make(map[models.ExhibitID][]source, len(models.Exhibits))
	for i, r := range loadSources(ctx, c.store, paths, c.config.ParseTimeout, c.config.Concurrency) {
		if r.err != nil {
			diags = append(diags, Diagnostic{Path: refs[i].path, Err: r.err})
			continue
		}
		out[refs[i].id] = append(out[refs[i].id], r.src)
	}
	return out, diags
}

// isPDF reports whether fileType names the PDF media type, ignoring case and
// parameters.
func isPDF(fileType string) bool {
	mediaType, _, err := mime.ParseMediaType(fileType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, models.MediaTypePDF)
}

// backfillIndex turns the recorded start pages into index rows and the
// stamps that print them into the reserved cover cells.
func backfillIndex(t *PageTracker) ([]pdf.Stamp, []IndexRow) {
	stamps := make([]pdf.Stamp, 0, len(indexLayout))
	rows := make([]IndexRow, 0, len(indexLayout))
	for i, row := range indexLayout {
		page, ok := t.StartPage(row.section)
		if !ok {
			continue
		}
		rows = append(rows, IndexRow{
			Serial:       i + 1,
			Particulars:  row.particulars,
			ExhibitLabel: row.exhibit.Label(),
			Page:         page,
		})
		stamps = append(stamps, pageNumberStamp(i, page))
	}
	return stamps, rows
}

func filingDate(c models.CaseData) *carbon.Carbon {
	if c.FilingDate.IsZero() {
		return carbon.Now()
	}
	return carbon.NewCarbon(c.FilingDate)
}
