package services

import (
	"errors"
	"testing"

	"github.com/Lllllllleong/filingassembly/internal/models"
)

func TestPageTrackerRecordOnce(t *testing.T) {
	tr := NewPageTracker()
	if err := tr.Record(models.SectionApplication, 2); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	err := tr.Record(models.SectionApplication, 5)
	if !errors.Is(err, ErrSectionAlreadyTracked) {
		t.Errorf("Expected ErrSectionAlreadyTracked, got %v", err)
	}
	if p, ok := tr.StartPage(models.SectionApplication); !ok || p != 2 {
		t.Errorf("Expected first recording to stay at page 2, got %d (%v)", p, ok)
	}
}

func TestPageTrackerRejectsInvalidPage(t *testing.T) {
	tr := NewPageTracker()
	if err := tr.Record(models.SectionMemorandum, 0); err == nil {
		t.Error("Expected an error for page 0")
	}
	if _, ok := tr.StartPage(models.SectionMemorandum); ok {
		t.Error("Expected rejected page not to be recorded")
	}
}

func TestPageTrackerSnapshotIsCopy(t *testing.T) {
	tr := NewPageTracker()
	_ = tr.Record(models.SectionExhibitA, 4)
	snap := tr.Snapshot()
	snap[models.SectionExhibitA] = 99
	if p, _ := tr.StartPage(models.SectionExhibitA); p != 4 {
		t.Errorf("Expected tracker to keep page 4, got %d", p)
	}
}
