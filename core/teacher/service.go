package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("teacher profile not found")
	ErrEmailExists      = errors.New("a teacher with this email already exists")
	ErrEmployeeIDExists = errors.New("a teacher with this employee ID already exists")
)

var defaultOrdering = []core.DBOrdering{{Field: "createdAt", Ascending: false}}

type (
	Repository interface {
		// Create fails with ErrEmailExists or ErrEmployeeIDExists on duplicates.
		Create(ctx context.Context, t Teacher) (Teacher, error)
		Get(ctx context.Context, id string) (Teacher, error)
		GetByUserID(ctx context.Context, userID string) (Teacher, error)
		Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Teacher, error)
		Update(ctx context.Context, t Teacher) (Teacher, error)
		// CountByBranch counts active teachers per branch ID.
		CountByBranch(ctx context.Context) (map[string]int, error)
	}

	Branches interface {
		Get(ctx context.Context, id string) (branch.Branch, error)
	}

	Service struct {
		repo     Repository
		accounts student.Accounts
		branches Branches
	}
)

func NewService(repo Repository, accounts student.Accounts, branches Branches) *Service {
	return &Service{repo: repo, accounts: accounts, branches: branches}
}

// Create hires a teacher: login account (email as loginId, password `firstname@employeeId`) then profile.
func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, student.Credentials, error) {
	if err := svc.checkBranch(ctx, nt.BranchID); err != nil {
		return Teacher{}, student.Credentials{}, err
	}

	now := time.Now().UTC()
	t := Teacher{
		Name:          nt.Name,
		Email:         nt.Email,
		Phone:         core.CleanString(nt.Phone),
		EmployeeID:    nt.EmployeeID,
		BranchID:      nt.BranchID,
		Subjects:      nt.Subjects,
		Qualification: core.CleanString(nt.Qualification),
		Experience:    core.CleanString(nt.Experience),
		Gender:        nt.Gender,
		Salary:        nt.Salary,
		Address:       core.CleanString(nt.Address),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if t.Gender == "" {
		t.Gender = "Male"
	}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	jd := core.Day(now)
	if nt.JoiningDate != "" {
		var err error
		if jd, err = core.ParseDay(nt.JoiningDate); err != nil {
			return Teacher{}, student.Credentials{}, core.NewFieldValidationError("joiningDate", err.Error())
		}
	}
	t.JoiningDate = &jd

	creds := student.Credentials{LoginID: t.Email, Password: student.GeneratePassword(t.FirstName(), t.EmployeeID)}
	usr, err := svc.accounts.Create(ctx, user.NewUser{
		Name:     t.Name,
		LoginID:  creds.LoginID,
		Password: creds.Password,
		Role:     user.RoleTeacher,
	})
	if err != nil {
		return Teacher{}, student.Credentials{}, errors.Wrap(err, "creating user")
	}
	t.UserID = usr.ID

	t, err = svc.repo.Create(ctx, t)
	if err != nil {
		_ = svc.accounts.Delete(ctx, usr.ID)
		return Teacher{}, student.Credentials{}, uniquenessErr(err, "creating teacher")
	}
	if _, err = svc.accounts.Link(ctx, usr.ID, t.ID); err != nil {
		return Teacher{}, student.Credentials{}, errors.Wrap(err, "linking user")
	}
	return t, creds, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByUser(ctx context.Context, userID string) (Teacher, error) {
	return svc.repo.GetByUserID(ctx, userID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering, page core.Pagination) (Page, error) {
	filter.Clean()
	teachers, err := svc.repo.Query(ctx, filter, cleanOrderings(orderings))
	if err != nil {
		return Page{}, errors.Wrap(err, "querying teachers")
	}
	page = page.Clean()
	return Page{
		Teachers: core.Paginate(teachers, page),
		Total:    len(teachers),
		Page:     page.Page,
		Pages:    page.Pages(len(teachers)),
	}, nil
}

// List returns every teacher matching filter ordered by name.
func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Teacher, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, []core.DBOrdering{{Field: "name", Ascending: true}})
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	orig := t
	t = ut.apply(t)
	t.UpdatedAt = time.Now().UTC()

	if t.BranchID != orig.BranchID {
		if err = svc.checkBranch(ctx, t.BranchID); err != nil {
			return Teacher{}, err
		}
	}
	if t.UserID != "" && (t.Name != orig.Name || t.Email != orig.Email) {
		if _, err = svc.accounts.Rename(ctx, t.UserID, t.Name, t.Email); err != nil {
			return Teacher{}, errors.Wrap(err, "renaming user")
		}
	}

	t, err = svc.repo.Update(ctx, t)
	if err != nil {
		return Teacher{}, uniquenessErr(err, "updating teacher")
	}
	return t, nil
}

// Delete deactivates the teacher and their login account.
func (svc *Service) Delete(ctx context.Context, id string) error {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.UserID != "" {
		if _, err = svc.accounts.SetActive(ctx, t.UserID, false); err != nil && errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "deactivating user")
		}
	}
	t.IsActive = false
	t.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.Update(ctx, t)
	return errors.Wrap(err, "deactivating teacher")
}

func (svc *Service) RegenerateCredentials(ctx context.Context, id string) (student.Credentials, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return student.Credentials{}, err
	}
	pwd := student.GeneratePassword(t.FirstName(), t.EmployeeID)
	usr, err := svc.accounts.SetPassword(ctx, t.UserID, pwd)
	if err != nil {
		return student.Credentials{}, errors.Wrap(err, "setting password")
	}
	return student.Credentials{LoginID: usr.LoginID, Password: pwd}, nil
}

func (svc *Service) CountByBranch(ctx context.Context) (map[string]int, error) {
	return svc.repo.CountByBranch(ctx)
}

func (svc *Service) checkBranch(ctx context.Context, id string) error {
	if _, err := svc.branches.Get(ctx, id); err != nil {
		if errors.Cause(err) == branch.ErrNotFound {
			return core.NewFieldValidationError("branchId", "branch not found")
		}
		return errors.Wrap(err, "finding branch")
	}
	return nil
}

func cleanOrderings(orderings []core.DBOrdering) []core.DBOrdering {
	cleaned := make([]core.DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if OrderFields[ord.Field] {
			cleaned = append(cleaned, ord)
		}
	}
	if len(cleaned) == 0 {
		return defaultOrdering
	}
	return cleaned
}

func uniquenessErr(err error, msg string) error {
	switch errors.Cause(err) {
	case ErrEmailExists:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case ErrEmployeeIDExists:
		return core.NewValidationError(ErrEmployeeIDExists, core.FieldError{Field: "employeeId", Error: ErrEmployeeIDExists.Error()})
	}
	return errors.Wrap(err, msg)
}
