package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	// ErrEmptySource is returned for zero-length input buffers.
	ErrEmptySource = errors.New("empty PDF source")
	// ErrNothingToMerge is returned by Merge when called without documents.
	ErrNothingToMerge = errors.New("no documents to merge")
)

var disableConfigDirOnce sync.Once

// Configuration returns a pdfcpu configuration with relaxed validation. The
// user config dir is never touched; only core fonts are needed.
func Configuration() *model.Configuration {
	disableConfigDirOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount reads and validates data as a PDF and returns its page count.
func PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptySource
	}
	n, err := api.PageCount(bytes.NewReader(data), Configuration())
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoPages
	}
	return n, nil
}

// Inspect is PageCount bounded by ctx. pdfcpu is not context aware, so a
// parse that outlives ctx is abandoned rather than interrupted.
func Inspect(ctx context.Context, data []byte) (int, error) {
	type result struct {
		pages int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		n, err := PageCount(data)
		done <- result{pages: n, err: err}
	}()
	select {
	case r := <-done:
		return r.pages, r.err
	case <-ctx.Done():
		return 0, fmt.Errorf("inspection aborted: %w", ctx.Err())
	}
}

// Merge concatenates docs in order into one document.
func Merge(docs [][]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, ErrNothingToMerge
	case 1:
		return bytes.Clone(docs[0]), nil
	}
	rsc := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		rsc[i] = bytes.NewReader(d)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(rsc, &buf, false, Configuration()); err != nil {
		return nil, fmt.Errorf("failed to merge %d documents: %w", len(docs), err)
	}
	return buf.Bytes(), nil
}

// Stamp is text drawn onto an already existing page. X and Y locate the
// lower left corner of the text box.
type Stamp struct {
	Text     string
	X        float64
	Y        float64
	FontName string
	FontSize int
}

func (s Stamp) description() string {
	fontName := s.FontName
	if fontName == "" {
		fontName = FontRegular
	}
	return fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1",
		fontName, s.FontSize, s.X, s.Y)
}

// StampPage writes every stamp onto page pageNr of data in place; no page is
// added or reflowed.
func StampPage(data []byte, pageNr int, stamps []Stamp) ([]byte, error) {
	if len(stamps) == 0 {
		return bytes.Clone(data), nil
	}
	wms := make([]*model.Watermark, 0, len(stamps))
	for _, s := range stamps {
		wm, err := api.TextWatermark(CleanText(s.Text), s.description(), true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("failed to build stamp %q: %w", s.Text, err)
		}
		wms = append(wms, wm)
	}
	var buf bytes.Buffer
	m := map[int][]*model.Watermark{pageNr: wms}
	if err := api.AddWatermarksSliceMap(bytes.NewReader(data), &buf, m, Configuration()); err != nil {
		return nil, fmt.Errorf("failed to stamp page %d: %w", pageNr, err)
	}
	return buf.Bytes(), nil
}
