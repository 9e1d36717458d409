package branch

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("branch not found")
	ErrCodeExists = errors.New("branch code already exists")
)

type (
	Repository interface {
		// Create fails with ErrCodeExists when the code is taken.
		Create(ctx context.Context, b Branch) (Branch, error)
		Get(ctx context.Context, id string) (Branch, error)
		GetByCode(ctx context.Context, code string) (Branch, error)
		// Query returns branches ordered by name.
		Query(ctx context.Context, filter QueryFilter) ([]Branch, error)
		Update(ctx context.Context, b Branch) (Branch, error)
	}

	// StudentCounter counts the active students enrolled in a branch.
	StudentCounter interface {
		CountActiveInBranch(ctx context.Context, branchID string) (int, error)
	}

	Service struct {
		repo     Repository
		students StudentCounter
	}
)

func NewService(repo Repository, students StudentCounter) *Service {
	return &Service{repo: repo, students: students}
}

func (svc *Service) Create(ctx context.Context, nb NewBranch) (Branch, error) {
	now := time.Now().UTC()
	b := Branch{
		Name:         nb.Name,
		Code:         nb.Code,
		Description:  nb.Description,
		Duration:     nb.Duration,
		TotalSeats:   defaultTotalSeats,
		FeeStructure: nb.FeeStructure.normalize(),
		Subjects:     nb.Subjects,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if b.Duration == "" {
		b.Duration = defaultDuration
	}
	if nb.TotalSeats != nil {
		b.TotalSeats = *nb.TotalSeats
	}
	if b.Subjects == nil {
		b.Subjects = []string{}
	}

	b, err := svc.repo.Create(ctx, b)
	if err != nil {
		return Branch{}, codeErr(err, "creating branch")
	}
	return b, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Branch, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Branch, error) {
	return svc.repo.GetByCode(ctx, code)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Branch, error) {
	return svc.repo.Query(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, ub UpdateBranch) (Branch, error) {
	b, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Branch{}, err
	}
	b = ub.apply(b)
	b.UpdatedAt = time.Now().UTC()

	b, err = svc.repo.Update(ctx, b)
	if err != nil {
		return Branch{}, codeErr(err, "updating branch")
	}
	return b, nil
}

// Delete deactivates the branch. Branches with active students cannot be deleted.
func (svc *Service) Delete(ctx context.Context, id string) error {
	b, err := svc.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := svc.students.CountActiveInBranch(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting active students")
	}
	if count > 0 {
		return core.NewValidationError(fmt.Errorf("cannot delete branch with %d active students", count))
	}

	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.Update(ctx, b)
	return errors.Wrap(err, "deactivating branch")
}

func codeErr(err error, msg string) error {
	if errors.Cause(err) == ErrCodeExists {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return errors.Wrap(err, msg)
}
