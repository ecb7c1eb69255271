package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/Lllllllleong/filingassembly/internal/filestore"
	"github.com/Lllllllleong/filingassembly/internal/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

func fixturePDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := pdf.NewDocument(pdf.A4)
	for i := 0; i < pages; i++ {
		doc.AddPage().Text(72, 700, pdf.FontRegular, 12, "fixture page")
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	return data
}

func newTestStore(t *testing.T) *filestore.Local {
	t.Helper()
	store, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return store
}

func putFile(t *testing.T, store FileStore, path string, data []byte) {
	t.Helper()
	if err := store.WriteFile(context.Background(), path, data); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	n, err := pdf.PageCount(data)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	return n
}

// pageContent returns the decoded content streams of one page.
func pageContent(t *testing.T, data []byte, pageNr int) string {
	t.Helper()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), pdf.Configuration())
	if err != nil {
		t.Fatalf("failed to read document: %v", err)
	}
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		t.Fatalf("failed to extract page %d: %v", pageNr, err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
