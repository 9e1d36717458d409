package fee

import (
	"context"
	"time"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// Ledgers opens the fee ledgers of newly enrolled students.
type Ledgers struct {
	repo Repository
}

func NewLedgers(repo Repository) *Ledgers {
	return &Ledgers{repo: repo}
}

// OpenAccount creates the ledger of a student for the current academic year.
func (l *Ledgers) OpenAccount(ctx context.Context, studentID, branchID string, total float64) error {
	now := time.Now().UTC()
	_, err := l.repo.Create(ctx, Fee{
		StudentID:    studentID,
		BranchID:     branchID,
		TotalAmount:  total,
		Payments:     []Payment{},
		AcademicYear: core.AcademicYear(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}
