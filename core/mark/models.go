package mark

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
)

// Exam types
const (
	ExamAssignment = "Assignment"
	ExamMidTerm    = "Mid-Term"
	ExamFinal      = "Final"
	ExamQuiz       = "Quiz"
	ExamPractical  = "Practical"
	ExamOther      = "Other"
)

const DefaultMaxMarks = 100

// Record is the score of one student in one exam of a subject on one calendar day.
// (StudentID, Subject, ExamType, Date) identifies it.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	BranchID  string    `json:"branchId"`
	Subject   string    `json:"subject"`
	ExamType  string    `json:"examType"`
	Marks     float64   `json:"marks"`
	MaxMarks  float64   `json:"maxMarks"`
	Date      time.Time `json:"date"`
	Remarks   string    `json:"remarks"`
	MarkedBy  string    `json:"markedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewMark records a single score.
type NewMark struct {
	StudentID string   `json:"studentId" validate:"required"`
	Subject   string   `json:"subject" validate:"required"`
	ExamType  string   `json:"examType" validate:"omitempty,oneof=Assignment Mid-Term Final Quiz Practical Other"`
	Marks     *float64 `json:"marks" validate:"required,gte=0"`
	MaxMarks  float64  `json:"maxMarks" validate:"omitempty,gt=0"`
	Date      string   `json:"date" validate:"omitempty,day"`
	Remarks   string   `json:"remarks"`
}

func (nm *NewMark) Validate(validate *validator.Validate) error {
	nm.StudentID = core.CleanString(nm.StudentID)
	nm.Subject = core.CleanString(nm.Subject)
	nm.ExamType = core.CleanString(nm.ExamType)
	nm.Remarks = core.CleanString(nm.Remarks)
	return validate.Struct(nm)
}

type BulkRow struct {
	StudentID string   `json:"studentId" validate:"required"`
	Marks     *float64 `json:"marks" validate:"required,gte=0"`
	Remarks   string   `json:"remarks"`
}

// BulkMarks records the scores of many students for one exam.
type BulkMarks struct {
	Records  []BulkRow `json:"records" validate:"required,min=1,dive"`
	Subject  string    `json:"subject" validate:"required"`
	ExamType string    `json:"examType" validate:"omitempty,oneof=Assignment Mid-Term Final Quiz Practical Other"`
	MaxMarks float64   `json:"maxMarks" validate:"omitempty,gt=0"`
	Date     string    `json:"date" validate:"omitempty,day"`
}

func (bm *BulkMarks) Validate(validate *validator.Validate) error {
	bm.Subject = core.CleanString(bm.Subject)
	bm.ExamType = core.CleanString(bm.ExamType)
	for i := range bm.Records {
		bm.Records[i].StudentID = core.CleanString(bm.Records[i].StudentID)
		bm.Records[i].Remarks = core.CleanString(bm.Records[i].Remarks)
	}
	return validate.Struct(bm)
}

// Filter narrows a branch listing.
type Filter struct {
	Subject  string `query:"subject"`
	ExamType string `query:"examType"`
}

func (f Filter) Matches(r Record) bool {
	return (f.Subject == "" || r.Subject == f.Subject) && (f.ExamType == "" || r.ExamType == f.ExamType)
}

type BatchResult struct {
	Records []Record               `json:"records"`
	Results []batch.Result[Record] `json:"results"`
	Summary batch.Summary          `json:"summary"`
}
