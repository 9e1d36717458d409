package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// OrderFields are the fields listings can be ordered by.
var OrderFields = map[string]bool{"name": true, "rollNo": true, "semester": true, "createdAt": true}

type Student struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	RollNo        string     `json:"rollNo"`
	AdmissionNo   string     `json:"admissionNo"`
	BranchID      string     `json:"branchId"`
	Semester      int        `json:"semester"`
	AcademicYear  string     `json:"academicYear"`
	Gender        string     `json:"gender"`
	DOB           *time.Time `json:"dob,omitempty"`
	Address       string     `json:"address"`
	GuardianName  string     `json:"guardianName"`
	GuardianPhone string     `json:"guardianPhone"`
	Subjects      []string   `json:"subjects"`
	UserID        string     `json:"userId"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// FirstName is the lower-cased first word of the student's name.
func (s Student) FirstName() string {
	if fields := strings.Fields(s.Name); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return ""
}

// Credentials are the generated login details of a student or teacher account.
type Credentials struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// NewStudent contains information needed to enroll a student.
type NewStudent struct {
	Name          string   `json:"name" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Phone         string   `json:"phone"`
	RollNo        string   `json:"rollNo" validate:"required"`
	AdmissionNo   string   `json:"admissionNo"`
	BranchID      string   `json:"branchId" validate:"required"`
	Semester      int      `json:"semester" validate:"omitempty,min=1,max=8"`
	AcademicYear  string   `json:"academicYear"`
	Gender        string   `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DOB           string   `json:"dob" validate:"omitempty,day"`
	Address       string   `json:"address"`
	GuardianName  string   `json:"guardianName"`
	GuardianPhone string   `json:"guardianPhone"`
	Subjects      []string `json:"subjects"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.RollNo = core.CleanString(ns.RollNo)
	ns.BranchID = core.CleanString(ns.BranchID)
	ns.Phone = core.CleanString(ns.Phone)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	Phone         *string  `json:"phone"`
	RollNo        *string  `json:"rollNo" validate:"omitempty,min=1"`
	AdmissionNo   *string  `json:"admissionNo"`
	BranchID      *string  `json:"branchId" validate:"omitempty,min=1"`
	Semester      *int     `json:"semester" validate:"omitempty,min=1,max=8"`
	AcademicYear  *string  `json:"academicYear"`
	Gender        *string  `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DOB           *string  `json:"dob" validate:"omitempty,day"`
	Address       *string  `json:"address"`
	GuardianName  *string  `json:"guardianName"`
	GuardianPhone *string  `json:"guardianPhone"`
	Subjects      []string `json:"subjects"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		*us.Name = core.CleanString(*us.Name)
	}
	if us.Email != nil {
		*us.Email = core.CleanString(*us.Email, true /* lower */)
	}
	if us.RollNo != nil {
		*us.RollNo = core.CleanString(*us.RollNo)
	}
	return validate.Struct(us)
}

func (us UpdateStudent) apply(s Student) Student {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	set(&s.Name, us.Name)
	set(&s.Email, us.Email)
	set(&s.Phone, us.Phone)
	set(&s.RollNo, us.RollNo)
	set(&s.AdmissionNo, us.AdmissionNo)
	set(&s.BranchID, us.BranchID)
	set(&s.AcademicYear, us.AcademicYear)
	set(&s.Gender, us.Gender)
	set(&s.Address, us.Address)
	set(&s.GuardianName, us.GuardianName)
	set(&s.GuardianPhone, us.GuardianPhone)
	if us.Semester != nil {
		s.Semester = *us.Semester
	}
	if us.DOB != nil {
		if dob, err := core.ParseDay(*us.DOB); err == nil {
			s.DOB = &dob
		}
	}
	if us.Subjects != nil {
		s.Subjects = us.Subjects
	}
	return s
}

type QueryFilter struct {
	BranchID        string   `query:"branch"`
	Search          string   `query:"search"`
	IncludeInactive bool     `query:"includeInactive"`
	IDs             []string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.BranchID = core.CleanString(qf.BranchID)
	qf.Search = core.CleanString(qf.Search)
}

// Matches applies the filter in memory; Search is a case-insensitive match on the name.
func (qf QueryFilter) Matches(s Student) bool {
	if !qf.IncludeInactive && !s.IsActive {
		return false
	}
	if qf.BranchID != "" && s.BranchID != qf.BranchID {
		return false
	}
	if qf.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(qf.Search)) {
		return false
	}
	if qf.IDs != nil {
		for _, id := range qf.IDs {
			if id == s.ID {
				return true
			}
		}
		return false
	}
	return true
}

// BranchCount is the number of active students in a branch.
type BranchCount struct {
	BranchID string `json:"branchId"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

type Stats struct {
	TotalStudents int           `json:"totalStudents"`
	ByBranch      []BranchCount `json:"byBranch"`
}

// Page is one page of a student listing.
type Page struct {
	Students []Student
	Total    int
	Page     int
	Pages    int
}
