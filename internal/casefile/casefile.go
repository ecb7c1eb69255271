// Package casefile reads the YAML documents the filingctl CLI works from.
package casefile

import (
	"fmt"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/Lllllllleong/filingassembly/internal/models"
	"gopkg.in/yaml.v3"
)

// CaseFile describes one filing to compose. Paths are relative to the
// store root.
type CaseFile struct {
	User        models.UserData                 `yaml:"user"`
	Case        models.CaseData                 `yaml:"case"`
	Application string                          `yaml:"application"`
	Exhibits    map[string][]models.ExhibitFile `yaml:"exhibits"`
	Output      string                          `yaml:"output"`
}

// MergePlan describes one merge job.
type MergePlan struct {
	Key   string             `yaml:"key"`
	Files []models.MergeFile `yaml:"files"`
}

// LoadCase reads and parses a case file.
func LoadCase(filePath string) (*CaseFile, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	return ParseCase(content)
}

// ParseCase parses case file content.
func ParseCase(content []byte) (*CaseFile, error) {
	var cf CaseFile
	if err := yaml.Unmarshal(content, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse case file: %w", err)
	}
	for slot := range cf.Exhibits {
		if _, err := exhibitID(slot); err != nil {
			return nil, err
		}
	}
	return &cf, nil
}

// ExhibitFiles converts the exhibit section into composer input. Slots may
// be written as "A" or "Exhibit A"; a missing fileType is derived from the
// file extension.
func (cf *CaseFile) ExhibitFiles() models.ExhibitFiles {
	out := make(models.ExhibitFiles, len(cf.Exhibits))
	for slot, files := range cf.Exhibits {
		id, err := exhibitID(slot)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.FileType == "" {
				f.FileType = mediaType(f.FilePath)
			}
			out[id] = append(out[id], f)
		}
	}
	return out
}

// LoadMergePlan reads and parses a merge plan.
func LoadMergePlan(filePath string) (*MergePlan, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge plan: %w", err)
	}
	var plan MergePlan
	if err := yaml.Unmarshal(content, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse merge plan: %w", err)
	}
	if plan.Key == "" {
		return nil, fmt.Errorf("merge plan %s has no key", filePath)
	}
	for i := range plan.Files {
		if plan.Files[i].Type == "" {
			plan.Files[i].Type = models.FileTypeOther
		}
	}
	return &plan, nil
}

func exhibitID(slot string) (models.ExhibitID, error) {
	s := strings.ToUpper(strings.TrimSpace(slot))
	s = strings.TrimSpace(strings.TrimPrefix(s, "EXHIBIT"))
	for _, id := range models.Exhibits {
		if id.Label() == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown exhibit slot %q", slot)
}

func mediaType(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))
	if ext == ".pdf" {
		return models.MediaTypePDF
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return strings.SplitN(t, ";", 2)[0]
	}
	return "application/octet-stream"
}
