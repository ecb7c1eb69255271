package models

// These structs define the JSON payloads for the HTTP functions in cmd/.

// ComposeFilingRequest is the input for the court-composer function. The
// application form is either inline (base64 in JSON) or a storage path.
type ComposeFilingRequest struct {
	User            UserData     `json:"user"`
	Case            CaseData     `json:"case"`
	ApplicationForm []byte       `json:"applicationForm,omitempty"`
	ApplicationPath string       `json:"applicationPath,omitempty"`
	Exhibits        ExhibitFiles `json:"exhibits,omitempty"`
	OutputPath      string       `json:"outputPath"`
}

// ComposeFilingResponse is the output of the court-composer function.
type ComposeFilingResponse struct {
	Status      string          `json:"status"`
	OutputPath  string          `json:"outputPath"`
	PageCount   int             `json:"pageCount"`
	SectionPage map[Section]int `json:"sectionPages"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
}

// MergeQueueRequest replaces the merge job for Key.
type MergeQueueRequest struct {
	Key   string      `json:"key"`
	Files []MergeFile `json:"files"`
}

// MergeKeyRequest addresses the job or storage area of Key.
type MergeKeyRequest struct {
	Key string `json:"key"`
}

// MergeStatusResponse is the output of the status function.
type MergeStatusResponse struct {
	Found bool      `json:"found"`
	Job   *MergeJob `json:"job,omitempty"`
}

// SweepEvent is the data of the scheduled sweep CloudEvent. A nil
// MaxAgeHours means the configured maximum age.
type SweepEvent struct {
	MaxAgeHours *float64 `json:"maxAgeHours,omitempty"`
}
