package teacher

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
)

var OrderFields = map[string]bool{"name": true, "employeeId": true, "createdAt": true}

type Teacher struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	EmployeeID    string     `json:"employeeId"`
	BranchID      string     `json:"branchId"`
	Subjects      []string   `json:"subjects"`
	Qualification string     `json:"qualification"`
	Experience    string     `json:"experience"`
	Gender        string     `json:"gender"`
	Salary        float64    `json:"salary"`
	JoiningDate   *time.Time `json:"joiningDate,omitempty"`
	Address       string     `json:"address"`
	UserID        string     `json:"userId"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (t Teacher) FirstName() string {
	if fields := strings.Fields(t.Name); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return ""
}

type NewTeacher struct {
	Name          string   `json:"name" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Phone         string   `json:"phone"`
	EmployeeID    string   `json:"employeeId" validate:"required"`
	BranchID      string   `json:"branchId" validate:"required"`
	Subjects      []string `json:"subjects"`
	Qualification string   `json:"qualification"`
	Experience    string   `json:"experience"`
	Gender        string   `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Salary        float64  `json:"salary" validate:"gte=0"`
	JoiningDate   string   `json:"joiningDate" validate:"omitempty,day"`
	Address       string   `json:"address"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.EmployeeID = core.CleanString(nt.EmployeeID)
	nt.BranchID = core.CleanString(nt.BranchID)
	return validate.Struct(nt)
}

type UpdateTeacher struct {
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	Phone         *string  `json:"phone"`
	EmployeeID    *string  `json:"employeeId" validate:"omitempty,min=1"`
	BranchID      *string  `json:"branchId" validate:"omitempty,min=1"`
	Subjects      []string `json:"subjects"`
	Qualification *string  `json:"qualification"`
	Experience    *string  `json:"experience"`
	Gender        *string  `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Salary        *float64 `json:"salary" validate:"omitempty,gte=0"`
	JoiningDate   *string  `json:"joiningDate" validate:"omitempty,day"`
	Address       *string  `json:"address"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	if ut.Email != nil {
		*ut.Email = core.CleanString(*ut.Email, true /* lower */)
	}
	return validate.Struct(ut)
}

func (ut UpdateTeacher) apply(t Teacher) Teacher {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	set(&t.Name, ut.Name)
	set(&t.Email, ut.Email)
	set(&t.Phone, ut.Phone)
	set(&t.EmployeeID, ut.EmployeeID)
	set(&t.BranchID, ut.BranchID)
	set(&t.Qualification, ut.Qualification)
	set(&t.Experience, ut.Experience)
	set(&t.Gender, ut.Gender)
	set(&t.Address, ut.Address)
	if ut.Subjects != nil {
		t.Subjects = ut.Subjects
	}
	if ut.Salary != nil {
		t.Salary = *ut.Salary
	}
	if ut.JoiningDate != nil {
		if jd, err := core.ParseDay(*ut.JoiningDate); err == nil {
			t.JoiningDate = &jd
		}
	}
	return t
}

type QueryFilter struct {
	BranchID        string `query:"branch"`
	Search          string `query:"search"`
	IncludeInactive bool   `query:"includeInactive"`
}

func (qf *QueryFilter) Clean() {
	qf.BranchID = core.CleanString(qf.BranchID)
	qf.Search = core.CleanString(qf.Search)
}

func (qf QueryFilter) Matches(t Teacher) bool {
	if !qf.IncludeInactive && !t.IsActive {
		return false
	}
	if qf.BranchID != "" && t.BranchID != qf.BranchID {
		return false
	}
	return qf.Search == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(qf.Search))
}

type Page struct {
	Teachers []Teacher
	Total    int
	Page     int
	Pages    int
}
