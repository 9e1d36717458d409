package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/batch"
)

// Statuses
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
)

// Record is the attendance of one student in one subject on one calendar day.
// (StudentID, Subject, Date) identifies it; Date is always 00:00 UTC.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	BranchID  string    `json:"branchId"`
	Subject   string    `json:"subject"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Marks     *float64  `json:"marks"`
	MarkedBy  string    `json:"markedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionKey identifies a class session: every record of a branch for one subject on one day.
type SessionKey struct {
	Subject  string
	BranchID string
	Date     time.Time
}

func (sk SessionKey) Matches(r Record) bool {
	return r.Subject == sk.Subject && r.BranchID == sk.BranchID && r.Date.Equal(sk.Date)
}

// MarkRow is one student's line in a mark batch.
type MarkRow struct {
	StudentID string   `json:"studentId" validate:"required"`
	Status    string   `json:"status" validate:"omitempty,oneof=Present Absent Late"`
	Marks     *float64 `json:"marks" validate:"omitempty,gte=0,lte=100"`
	BranchID  string   `json:"branch"`
}

// MarkBatch upserts one record per row for a shared subject and date.
// BranchID is used for rows that do not carry their own branch.
type MarkBatch struct {
	Records  []MarkRow `json:"records" validate:"required,min=1,dive"`
	Subject  string    `json:"subject" validate:"required"`
	Date     string    `json:"date" validate:"required"`
	BranchID string    `json:"branchId"`
}

func (mb *MarkBatch) Validate(validate *validator.Validate) error {
	mb.clean()
	return validate.Struct(mb)
}

func (mb *MarkBatch) clean() {
	mb.Subject = core.CleanString(mb.Subject)
	mb.BranchID = core.CleanString(mb.BranchID)
	for i := range mb.Records {
		mb.Records[i].StudentID = core.CleanString(mb.Records[i].StudentID)
		mb.Records[i].BranchID = core.CleanString(mb.Records[i].BranchID)
	}
}

// SessionRef names a session by its wire fields.
type SessionRef struct {
	Subject  string `json:"subject" query:"subject" validate:"required"`
	Date     string `json:"date" query:"date" validate:"required,day"`
	BranchID string `json:"branchId" query:"branchId" validate:"required"`
}

func (sr *SessionRef) Validate(validate *validator.Validate) error {
	sr.clean()
	return validate.Struct(sr)
}

func (sr *SessionRef) clean() {
	sr.Subject = core.CleanString(sr.Subject)
	sr.BranchID = core.CleanString(sr.BranchID)
}

// key checks the identity fields and parses the date.
func (sr SessionRef) key() (SessionKey, error) {
	var flds []core.FieldError
	if sr.Subject == "" {
		flds = append(flds, core.FieldError{Field: "subject", Error: "this field is required"})
	}
	if sr.BranchID == "" {
		flds = append(flds, core.FieldError{Field: "branchId", Error: "this field is required"})
	}
	day, err := core.ParseDay(sr.Date)
	if err != nil {
		flds = append(flds, core.FieldError{Field: "date", Error: "date must be a valid date (YYYY-MM-DD)"})
	}
	if len(flds) > 0 {
		return SessionKey{}, core.NewValidationError(errSessionRequired, flds...)
	}
	return SessionKey{Subject: sr.Subject, BranchID: sr.BranchID, Date: day}, nil
}

type StatusRow struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=Present Absent Late"`
}

// SessionUpdate sets the status of the given students in a session; other students are left untouched.
type SessionUpdate struct {
	SessionRef
	Records []StatusRow `json:"records" validate:"required,dive"`
}

func (su *SessionUpdate) Validate(validate *validator.Validate) error {
	su.clean()
	for i := range su.Records {
		su.Records[i].StudentID = core.CleanString(su.Records[i].StudentID)
	}
	return validate.Struct(su)
}

// Filter narrows a branch listing. Date is a `YYYY-MM-DD` day.
type Filter struct {
	Subject string `query:"subject"`
	Date    string `query:"date"`
}

// RecordFilter is Filter with the date parsed; a zero Date matches any day.
type RecordFilter struct {
	Subject string
	Date    time.Time
}

func (rf RecordFilter) Matches(r Record) bool {
	if rf.Subject != "" && r.Subject != rf.Subject {
		return false
	}
	return rf.Date.IsZero() || r.Date.Equal(rf.Date)
}

// BatchResult reports the persisted records and the outcome of every row.
type BatchResult struct {
	Records []Record               `json:"records"`
	Results []batch.Result[Record] `json:"results"`
	Summary batch.Summary          `json:"summary"`
}

// Tally counts records and the Present ones among them.
type Tally struct {
	Total   int `json:"total"`
	Present int `json:"present"`
}

type BranchStats struct {
	BranchID   string `json:"branchId"`
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Present    int    `json:"present"`
	Percentage int    `json:"percentage"`
}

type Stats struct {
	Total      int           `json:"total"`
	Present    int           `json:"present"`
	Percentage int           `json:"percentage"`
	ByBranch   []BranchStats `json:"byBranch"`
}
