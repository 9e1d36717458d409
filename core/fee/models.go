package fee

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// Payment methods
const (
	MethodCash         = "Cash"
	MethodOnline       = "Online"
	MethodCheque       = "Cheque"
	MethodBankTransfer = "Bank Transfer"
)

type Payment struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transactionId"`
	Remarks       string    `json:"remarks"`
}

// Fee is the fee ledger of one student.
type Fee struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	BranchID     string    `json:"branchId"`
	TotalAmount  float64   `json:"totalAmount"`
	PaidAmount   float64   `json:"paidAmount"`
	DueAmount    float64   `json:"dueAmount"`
	Payments     []Payment `json:"payments"`
	AcademicYear string    `json:"academicYear"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Recompute derives PaidAmount and DueAmount from the payments. Stored amounts are never trusted.
func (f *Fee) Recompute() {
	var paid float64
	for _, p := range f.Payments {
		paid += p.Amount
	}
	f.PaidAmount = paid
	f.DueAmount = f.TotalAmount - paid
	if f.Payments == nil {
		f.Payments = []Payment{}
	}
}

type StudentRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
	Email  string `json:"email"`
}

type BranchRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Account is a ledger with its student and branch.
type Account struct {
	Fee
	Student *StudentRef `json:"student"`
	Branch  *BranchRef  `json:"branch"`
}

// Filter selects ledgers by branch and/or student.
type Filter struct {
	BranchID   string
	StudentIDs []string
}

func (f Filter) Matches(fee Fee) bool {
	if f.BranchID != "" && fee.BranchID != f.BranchID {
		return false
	}
	if f.StudentIDs == nil {
		return true
	}
	for _, id := range f.StudentIDs {
		if id == fee.StudentID {
			return true
		}
	}
	return false
}

// QueryFilter is the listing filter: Search matches student names, case-insensitively.
type QueryFilter struct {
	BranchID string `query:"branch"`
	Search   string `query:"search"`
}

// NewPayment records a payment for the student identified by StudentID or RollNo.
type NewPayment struct {
	StudentID     string  `json:"studentId" validate:"required_without=RollNo"`
	RollNo        string  `json:"rollNo"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method" validate:"omitempty,oneof=Cash Online Cheque 'Bank Transfer'"`
	TransactionID string  `json:"transactionId"`
	Remarks       string  `json:"remarks"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.RollNo = core.CleanString(np.RollNo)
	np.TransactionID = core.CleanString(np.TransactionID)
	np.Remarks = core.CleanString(np.Remarks)
	return validate.Struct(np)
}

// BranchPayment records the same payment for every student of a branch.
type BranchPayment struct {
	BranchID    string  `json:"branchId" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"omitempty,oneof=Cash Online Cheque 'Bank Transfer'"`
	Remarks     string  `json:"remarks"`
	Description string  `json:"description"`
}

func (bp *BranchPayment) Validate(validate *validator.Validate) error {
	bp.BranchID = core.CleanString(bp.BranchID)
	bp.Remarks = core.CleanString(bp.Remarks)
	bp.Description = core.CleanString(bp.Description)
	return validate.Struct(bp)
}

// AlertFilter narrows payment alerts to a branch and/or a student.
type AlertFilter struct {
	BranchID  string `json:"branchId"`
	StudentID string `json:"studentId"`
}

// Alert is a student reminded of pending dues.
type Alert struct {
	Name        string  `json:"name"`
	RollNo      string  `json:"rollNo"`
	Email       string  `json:"email"`
	DueAmount   float64 `json:"dueAmount"`
	TotalAmount float64 `json:"totalAmount"`
}

type Month struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type BranchTotals struct {
	Name      string  `json:"name"`
	TotalFees float64 `json:"totalFees"`
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
}

type Summary struct {
	TotalRevenue  float64        `json:"totalRevenue"`
	TotalPending  float64        `json:"totalPending"`
	TotalFees     float64        `json:"totalFees"`
	Monthly       []Month        `json:"monthly"`
	ByBranch      []BranchTotals `json:"byBranch"`
	TotalStudents int            `json:"totalStudents"`
}
