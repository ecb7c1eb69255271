package models

import "time"

// UserData is the applicant as supplied by the user provider.
type UserData struct {
	Name       string `json:"name" yaml:"name"`
	Address    string `json:"address" yaml:"address"`
	Email      string `json:"email,omitempty" yaml:"email"`
	Phone      string `json:"phone,omitempty" yaml:"phone"`
	Occupation string `json:"occupation,omitempty" yaml:"occupation"`
}

// CaseData is the case as supplied by the case provider.
type CaseData struct {
	CaseNumber        string    `json:"caseNumber" yaml:"caseNumber"`
	CourtName         string    `json:"courtName" yaml:"courtName"`
	CaseType          string    `json:"caseType,omitempty" yaml:"caseType"`
	RespondentName    string    `json:"respondentName,omitempty" yaml:"respondentName"`
	RespondentAddress string    `json:"respondentAddress,omitempty" yaml:"respondentAddress"`
	AdvocateName      string    `json:"advocateName,omitempty" yaml:"advocateName"`
	Place             string    `json:"place,omitempty" yaml:"place"`
	FilingDate        time.Time `json:"filingDate,omitempty" yaml:"filingDate"`
}

// ExhibitID names one of the four fixed exhibit slots.
type ExhibitID string

const (
	ExhibitA ExhibitID = "Exhibit A"
	ExhibitB ExhibitID = "Exhibit B"
	ExhibitC ExhibitID = "Exhibit C"
	ExhibitD ExhibitID = "Exhibit D"
)

// Exhibits lists the exhibit slots in filing order.
var Exhibits = []ExhibitID{ExhibitA, ExhibitB, ExhibitC, ExhibitD}

// Label returns the single letter used in the index, e.g. "A".
func (id ExhibitID) Label() string {
	s := string(id)
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1:]
}

// MediaTypePDF is the only exhibit media type that gets embedded.
const MediaTypePDF = "application/pdf"

// ExhibitFile is an attachment to an exhibit slot.
type ExhibitFile struct {
	FilePath string `json:"filePath" yaml:"filePath"`
	FileType string `json:"fileType" yaml:"fileType"`
}

// ExhibitFiles maps each exhibit slot to its attachments in order.
type ExhibitFiles map[ExhibitID][]ExhibitFile

// Section is one fixed content unit of the composed filing.
type Section string

const (
	SectionCover           Section = "cover"
	SectionApplication     Section = "application"
	SectionListOfDocuments Section = "listOfDocuments"
	SectionExhibitA        Section = "exhibitA"
	SectionExhibitB        Section = "exhibitB"
	SectionExhibitC        Section = "exhibitC"
	SectionExhibitD        Section = "exhibitD"
	SectionMemorandum      Section = "memorandum"
	SectionAffidavit       Section = "affidavit"
	SectionVakalatnama     Section = "vakalatnama"
)

// Sections is the total, fixed order of a filing.
var Sections = []Section{
	SectionCover,
	SectionApplication,
	SectionListOfDocuments,
	SectionExhibitA,
	SectionExhibitB,
	SectionExhibitC,
	SectionExhibitD,
	SectionMemorandum,
	SectionAffidavit,
	SectionVakalatnama,
}

// IndexedSections are the sections listed in the cover index.
var IndexedSections = Sections[1:]

// ExhibitSection maps an exhibit slot to its section.
func ExhibitSection(id ExhibitID) Section {
	switch id {
	case ExhibitA:
		return SectionExhibitA
	case ExhibitB:
		return SectionExhibitB
	case ExhibitC:
		return SectionExhibitC
	case ExhibitD:
		return SectionExhibitD
	}
	return ""
}
