package gcp

import (
	"encoding/json"
	"testing"

	"github.com/Lllllllleong/filingassembly/internal/models"
)

func TestObjectName(t *testing.T) {
	cases := []struct {
		prefix string
		path   string
		want   string
	}{
		{prefix: "", path: "user-1/doc.pdf", want: "user-1/doc.pdf"},
		{prefix: "filings", path: "/user-1/doc.pdf", want: "filings/user-1/doc.pdf"},
		{prefix: "filings", path: "../../escape.pdf", want: "filings/escape.pdf"},
	}
	for _, c := range cases {
		s := &GCSStore{prefix: c.prefix}
		if got := s.objectName(c.path); got != c.want {
			t.Errorf("objectName(%q) with prefix %q: expected %q, got %q", c.path, c.prefix, c.want, got)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("a/merged.PDF"); got != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", got)
	}
	if got := contentType("a/notes.txt"); got != "application/octet-stream" {
		t.Errorf("Expected application/octet-stream, got %s", got)
	}
}

func TestWorkflowArgument(t *testing.T) {
	arg, err := workflowArgument(models.MergeJob{
		ID:             "job-1",
		Key:            "user-1",
		MergedFilePath: "user-1/merged_user-1_1.pdf",
		TotalPages:     5,
	})
	if err != nil {
		t.Fatalf("workflowArgument failed: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(arg), &payload); err != nil {
		t.Fatalf("Expected JSON argument, got %q", arg)
	}
	if payload["mergedFilePath"] != "user-1/merged_user-1_1.pdf" {
		t.Errorf("Expected merged path in payload, got %v", payload["mergedFilePath"])
	}
	if payload["totalPages"] != float64(5) {
		t.Errorf("Expected 5 total pages, got %v", payload["totalPages"])
	}
}
