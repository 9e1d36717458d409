package student

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("student not found")
	ErrEmailExists  = errors.New("a student with this email already exists")
	ErrRollNoExists = errors.New("a student with this roll number already exists")
)

var defaultOrdering = []core.DBOrdering{{Field: "createdAt", Ascending: false}}

type (
	Repository interface {
		// Create fails with ErrEmailExists or ErrRollNoExists on duplicates.
		Create(ctx context.Context, s Student) (Student, error)
		Get(ctx context.Context, id string) (Student, error)
		GetByUserID(ctx context.Context, userID string) (Student, error)
		GetByRollNo(ctx context.Context, rollNo string) (Student, error)
		// Query returns every student matching filter, ordered by orderings (fields from OrderFields).
		Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Student, error)
		Update(ctx context.Context, s Student) (Student, error)
		// CountByBranch counts active students per branch ID.
		CountByBranch(ctx context.Context) (map[string]int, error)
	}

	// Accounts manages the login accounts linked to profiles.
	Accounts interface {
		Create(ctx context.Context, nu user.NewUser) (user.User, error)
		GetByID(ctx context.Context, id string) (user.User, error)
		Link(ctx context.Context, id, refID string) (user.User, error)
		Rename(ctx context.Context, id, name, loginID string) (user.User, error)
		SetActive(ctx context.Context, id string, active bool) (user.User, error)
		SetPassword(ctx context.Context, id, pwd string) (user.User, error)
		Delete(ctx context.Context, id string) error
	}

	Branches interface {
		Get(ctx context.Context, id string) (branch.Branch, error)
		Query(ctx context.Context, filter branch.QueryFilter) ([]branch.Branch, error)
	}

	// FeeAccounts opens the fee ledger of a newly enrolled student.
	FeeAccounts interface {
		OpenAccount(ctx context.Context, studentID, branchID string, total float64) error
	}

	Service struct {
		repo     Repository
		accounts Accounts
		branches Branches
		fees     FeeAccounts
	}
)

func NewService(repo Repository, accounts Accounts, branches Branches, fees FeeAccounts) *Service {
	return &Service{repo: repo, accounts: accounts, branches: branches, fees: fees}
}

// GeneratePassword builds the default password `firstname@id` of a profile.
func GeneratePassword(firstName, id string) string {
	return firstName + "@" + id
}

// Create enrolls a student: it creates the login account (email as loginId, generated password),
// the profile, and the fee ledger sized by the branch fee structure.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, Credentials, error) {
	br, err := svc.branches.Get(ctx, ns.BranchID)
	if err != nil {
		if errors.Cause(err) == branch.ErrNotFound {
			return Student{}, Credentials{}, core.NewFieldValidationError("branchId", "branch not found")
		}
		return Student{}, Credentials{}, errors.Wrap(err, "finding branch")
	}

	now := time.Now().UTC()
	s := Student{
		Name:          ns.Name,
		Email:         ns.Email,
		Phone:         ns.Phone,
		RollNo:        ns.RollNo,
		AdmissionNo:   core.CleanString(ns.AdmissionNo),
		BranchID:      br.ID,
		Semester:      ns.Semester,
		AcademicYear:  core.CleanString(ns.AcademicYear),
		Gender:        ns.Gender,
		Address:       core.CleanString(ns.Address),
		GuardianName:  core.CleanString(ns.GuardianName),
		GuardianPhone: core.CleanString(ns.GuardianPhone),
		Subjects:      ns.Subjects,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if s.Semester == 0 {
		s.Semester = 1
	}
	if s.Gender == "" {
		s.Gender = "Male"
	}
	if s.Subjects == nil {
		s.Subjects = append([]string{}, br.Subjects...)
	}
	if ns.DOB != "" {
		dob, err := core.ParseDay(ns.DOB)
		if err != nil {
			return Student{}, Credentials{}, core.NewFieldValidationError("dob", err.Error())
		}
		s.DOB = &dob
	}

	creds := Credentials{LoginID: s.Email, Password: GeneratePassword(s.FirstName(), s.RollNo)}
	usr, err := svc.accounts.Create(ctx, user.NewUser{
		Name:     s.Name,
		LoginID:  creds.LoginID,
		Password: creds.Password,
		Role:     user.RoleStudent,
	})
	if err != nil {
		return Student{}, Credentials{}, errors.Wrap(err, "creating user")
	}
	s.UserID = usr.ID

	s, err = svc.repo.Create(ctx, s)
	if err != nil {
		// no cross-document transaction: undo the account by hand
		_ = svc.accounts.Delete(ctx, usr.ID)
		return Student{}, Credentials{}, uniquenessErr(err, "creating student")
	}
	if _, err = svc.accounts.Link(ctx, usr.ID, s.ID); err != nil {
		return Student{}, Credentials{}, errors.Wrap(err, "linking user")
	}
	if err = svc.fees.OpenAccount(ctx, s.ID, br.ID, br.FeeStructure.TotalFee); err != nil {
		return Student{}, Credentials{}, errors.Wrap(err, "opening fee account")
	}
	return s, creds, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByUser(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetByUserID(ctx, userID)
}

func (svc *Service) GetByRollNo(ctx context.Context, rollNo string) (Student, error) {
	return svc.repo.GetByRollNo(ctx, core.CleanString(rollNo))
}

// Query lists one page of students; orderings on unknown fields are ignored.
func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering, page core.Pagination) (Page, error) {
	filter.Clean()
	students, err := svc.repo.Query(ctx, filter, cleanOrderings(orderings))
	if err != nil {
		return Page{}, errors.Wrap(err, "querying students")
	}
	page = page.Clean()
	return Page{
		Students: core.Paginate(students, page),
		Total:    len(students),
		Page:     page.Page,
		Pages:    page.Pages(len(students)),
	}, nil
}

// List returns every student matching filter.
func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, []core.DBOrdering{{Field: "rollNo", Ascending: true}})
}

// Roster maps student IDs to profiles, inactive students included.
func (svc *Service) Roster(ctx context.Context, ids []string) (map[string]Student, error) {
	roster := make(map[string]Student, len(ids))
	if len(ids) == 0 {
		return roster, nil
	}
	students, err := svc.repo.Query(ctx, QueryFilter{IDs: ids, IncludeInactive: true}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	for _, s := range students {
		roster[s.ID] = s
	}
	return roster, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	orig := s
	s = us.apply(s)
	s.UpdatedAt = time.Now().UTC()

	if s.BranchID != orig.BranchID {
		if _, err = svc.branches.Get(ctx, s.BranchID); err != nil {
			if errors.Cause(err) == branch.ErrNotFound {
				return Student{}, core.NewFieldValidationError("branchId", "branch not found")
			}
			return Student{}, errors.Wrap(err, "finding branch")
		}
	}
	if s.UserID != "" && (s.Name != orig.Name || s.Email != orig.Email) {
		if _, err = svc.accounts.Rename(ctx, s.UserID, s.Name, s.Email); err != nil {
			return Student{}, errors.Wrap(err, "renaming user")
		}
	}

	s, err = svc.repo.Update(ctx, s)
	if err != nil {
		return Student{}, uniquenessErr(err, "updating student")
	}
	return s, nil
}

// Delete deactivates the student and their login account.
func (svc *Service) Delete(ctx context.Context, id string) error {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.UserID != "" {
		if _, err = svc.accounts.SetActive(ctx, s.UserID, false); err != nil && errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "deactivating user")
		}
	}
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.Update(ctx, s)
	return errors.Wrap(err, "deactivating student")
}

// RegenerateCredentials resets the account password to the generated default.
func (svc *Service) RegenerateCredentials(ctx context.Context, id string) (Credentials, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Credentials{}, err
	}
	pwd := GeneratePassword(s.FirstName(), s.RollNo)
	usr, err := svc.accounts.SetPassword(ctx, s.UserID, pwd)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "setting password")
	}
	return Credentials{LoginID: usr.LoginID, Password: pwd}, nil
}

func (svc *Service) CountByBranch(ctx context.Context) (map[string]int, error) {
	return svc.repo.CountByBranch(ctx)
}

// Stats counts active students overall and per branch, branches ordered by name.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := svc.repo.CountByBranch(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	branches, err := svc.branches.Query(ctx, branch.QueryFilter{IncludeInactive: true})
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying branches")
	}

	stats := Stats{ByBranch: make([]BranchCount, 0, len(counts))}
	names := make(map[string]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}
	for id, count := range counts {
		stats.TotalStudents += count
		if name, ok := names[id]; ok {
			stats.ByBranch = append(stats.ByBranch, BranchCount{BranchID: id, Name: name, Count: count})
		}
	}
	sort.Slice(stats.ByBranch, func(i, j int) bool { return stats.ByBranch[i].Name < stats.ByBranch[j].Name })
	return stats, nil
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
	case ErrRollNoExists:
		return core.NewValidationError(ErrRollNoExists, core.FieldError{Field: "rollNo", Error: ErrRollNoExists.Error()})
	}
	return errors.Wrap(err, msg)
}

type activeCounter struct {
	repo Repository
}

// NewActiveCounter counts the active students of a branch straight from the repository.
func NewActiveCounter(repo Repository) branch.StudentCounter {
	return activeCounter{repo: repo}
}

func (c activeCounter) CountActiveInBranch(ctx context.Context, branchID string) (int, error) {
	counts, err := c.repo.CountByBranch(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return counts[branchID], nil
}
