package models

import "time"

// JobStatus is the lifecycle state of a merge job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// FileType is the declared role of a merge input. It only drives ordering.
type FileType string

const (
	FileTypeCourtDocument   FileType = "court_document"
	FileTypeApplicationForm FileType = "application_form"
	FileTypeExhibit         FileType = "exhibit"
	FileTypeOther           FileType = "other"
)

// MergeFile is one input of a merge job.
type MergeFile struct {
	Type     FileType `json:"type" firestore:"type" yaml:"type"`
	FilePath string   `json:"filePath" firestore:"filePath" yaml:"filePath"`
}

// MergeJob is the record for one merge run of a user's documents. It is also
// the snapshot persisted to Firestore on every status change.
type MergeJob struct {
	ID             string      `json:"id" firestore:"id"`
	Key            string      `json:"key" firestore:"key"`
	Files          []MergeFile `json:"files" firestore:"files"`
	Status         JobStatus   `json:"status" firestore:"status"`
	CreatedAt      time.Time   `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt" firestore:"updatedAt"`
	Attempts       int         `json:"attempts" firestore:"attempts"`
	MergedFilePath string      `json:"mergedFilePath,omitempty" firestore:"mergedFilePath,omitempty"`
	TotalPages     int         `json:"totalPages,omitempty" firestore:"totalPages,omitempty"`
	MergedFiles    int         `json:"mergedFiles,omitempty" firestore:"mergedFiles,omitempty"`
	Diagnostics    []string    `json:"diagnostics,omitempty" firestore:"diagnostics,omitempty"`
	Error          string      `json:"error,omitempty" firestore:"error,omitempty"`
}

// Clone returns a copy that shares no slices with j.
func (j MergeJob) Clone() MergeJob {
	j.Files = append([]MergeFile(nil), j.Files...)
	j.Diagnostics = append([]string(nil), j.Diagnostics...)
	return j
}

// MergeResult is what a merge run reports back to its caller.
type MergeResult struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	Status         JobStatus `json:"status,omitempty"`
	MergedFilePath string    `json:"mergedFilePath,omitempty"`
	TotalPages     int       `json:"totalPages,omitempty"`
	MergedFiles    int       `json:"mergedFiles,omitempty"`
	Diagnostics    []string  `json:"diagnostics,omitempty"`
}
