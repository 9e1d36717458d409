package branch

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
)

const (
	defaultDuration   = "4 Years"
	defaultTotalSeats = 60
)

type FeeStructure struct {
	TotalFee   float64 `json:"totalFee" validate:"gte=0"`
	TuitionFee float64 `json:"tuitionFee" validate:"gte=0"`
	ExamFee    float64 `json:"examFee" validate:"gte=0"`
	LabFee     float64 `json:"labFee" validate:"gte=0"`
	OtherFee   float64 `json:"otherFee" validate:"gte=0"`
}

// normalize fills TotalFee from its components when it was left empty.
func (fs FeeStructure) normalize() FeeStructure {
	if fs.TotalFee == 0 {
		fs.TotalFee = fs.TuitionFee + fs.ExamFee + fs.LabFee + fs.OtherFee
	}
	return fs
}

type Branch struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Code         string       `json:"code"`
	Description  string       `json:"description"`
	Duration     string       `json:"duration"`
	TotalSeats   int          `json:"totalSeats"`
	FeeStructure FeeStructure `json:"feeStructure"`
	Subjects     []string     `json:"subjects"`
	IsActive     bool         `json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// HasSubject reports whether subject is taught in the branch. Branches without a subject list accept any.
func (b Branch) HasSubject(subject string) bool {
	if len(b.Subjects) == 0 {
		return true
	}
	for _, s := range b.Subjects {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}

type NewBranch struct {
	Name         string       `json:"name" validate:"required"`
	Code         string       `json:"code" validate:"required,max=16,alphanum_"`
	Description  string       `json:"description"`
	Duration     string       `json:"duration"`
	TotalSeats   *int         `json:"totalSeats" validate:"omitempty,gte=0"`
	FeeStructure FeeStructure `json:"feeStructure"`
	Subjects     []string     `json:"subjects" validate:"dive,required"`
}

func (nb *NewBranch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Code = strings.ToUpper(core.CleanString(nb.Code))
	nb.Description = core.CleanString(nb.Description)
	nb.Duration = core.CleanString(nb.Duration)
	nb.Subjects = cleanSubjects(nb.Subjects)
	return validate.Struct(nb)
}

// UpdateBranch defines what information may be provided to modify an existing Branch.
type UpdateBranch struct {
	Name         *string       `json:"name" validate:"omitempty,min=1"`
	Code         *string       `json:"code" validate:"omitempty,max=16,alphanum_"`
	Description  *string       `json:"description"`
	Duration     *string       `json:"duration"`
	TotalSeats   *int          `json:"totalSeats" validate:"omitempty,gte=0"`
	FeeStructure *FeeStructure `json:"feeStructure"`
	Subjects     []string      `json:"subjects" validate:"omitempty,dive,required"`
	IsActive     *bool         `json:"isActive"`
}

func (ub *UpdateBranch) Validate(validate *validator.Validate) error {
	if ub.Name != nil {
		*ub.Name = core.CleanString(*ub.Name)
	}
	if ub.Code != nil {
		*ub.Code = strings.ToUpper(core.CleanString(*ub.Code))
	}
	if ub.Subjects != nil {
		ub.Subjects = cleanSubjects(ub.Subjects)
	}
	return validate.Struct(ub)
}

func (ub UpdateBranch) apply(b Branch) Branch {
	if ub.Name != nil {
		b.Name = *ub.Name
	}
	if ub.Code != nil {
		b.Code = *ub.Code
	}
	if ub.Description != nil {
		b.Description = core.CleanString(*ub.Description)
	}
	if ub.Duration != nil {
		b.Duration = core.CleanString(*ub.Duration)
	}
	if ub.TotalSeats != nil {
		b.TotalSeats = *ub.TotalSeats
	}
	if ub.FeeStructure != nil {
		b.FeeStructure = ub.FeeStructure.normalize()
	}
	if ub.Subjects != nil {
		b.Subjects = ub.Subjects
	}
	if ub.IsActive != nil {
		b.IsActive = *ub.IsActive
	}
	return b
}

type QueryFilter struct {
	IncludeInactive bool `query:"includeInactive"`
}

func cleanSubjects(subjects []string) []string {
	if subjects == nil {
		return nil
	}
	seen := make(map[string]bool, len(subjects))
	cleaned := make([]string, 0, len(subjects))
	for _, s := range subjects {
		s = core.CleanString(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		cleaned = append(cleaned, s)
	}
	return cleaned
}
