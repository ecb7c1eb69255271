package services

import (
	"fmt"

	"github.com/Lllllllleong/filingassembly/internal/models"
)

// PageTracker records the absolute, 1-based page at which each section of a
// filing begins. Every section is recorded at most once.
type PageTracker struct {
	starts map[models.Section]int
}

func NewPageTracker() *PageTracker {
	return &PageTracker{starts: make(map[models.Section]int)}
}

// Record stores the start page of section.
func (t *PageTracker) Record(section models.Section, page int) error {
	if page < 1 {
		return fmt.Errorf("invalid start page %d for section %s", page, section)
	}
	if prev, ok := t.starts[section]; ok {
		return fmt.Errorf("%w: %s starts at page %d", ErrSectionAlreadyTracked, section, prev)
	}
	t.starts[section] = page
	return nil
}

// StartPage returns the recorded start page of section.
func (t *PageTracker) StartPage(section models.Section) (int, bool) {
	p, ok := t.starts[section]
	return p, ok
}

// Snapshot returns a copy of every recorded start page.
func (t *PageTracker) Snapshot() map[models.Section]int {
	out := make(map[models.Section]int, len(t.starts))
	for s, p := range t.starts {
		out[s] = p
	}
	return out
}
