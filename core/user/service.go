package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrLoginIDExists      = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated, contact admin")
)

type (
	Repository interface {
		// Create fails with ErrLoginIDExists when the loginId is taken.
		Create(ctx context.Context, usr User) (User, error)
		Get(ctx context.Context, id string) (User, error)
		GetByLoginID(ctx context.Context, loginID string) (User, error)
		// Update saves all mutable fields of usr.
		Update(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		LoginID:   nu.LoginID,
		Role:      nu.Role,
		RefID:     nu.RefID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.Create(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrLoginIDExists {
			return User{}, core.NewValidationError(ErrLoginIDExists, core.FieldError{Field: "email", Error: ErrLoginIDExists.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// UpdateOrCreate creates the user, or when its loginId exists, resets name, role, password and reactivates it.
func (svc *Service) UpdateOrCreate(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	usr, err := svc.repo.GetByLoginID(ctx, nu.LoginID)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return User{}, errors.Wrap(err, "finding user by loginId")
		}
		return svc.Create(ctx, nu)
	}
	usr.Name = nu.Name
	usr.Role = nu.Role
	usr.IsActive = true
	if nu.RefID != "" {
		usr.RefID = nu.RefID
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.save(ctx, usr)
}

// Authenticate checks the credentials and records the login time.
func (svc *Service) Authenticate(ctx context.Context, loginID, pwd string) (User, error) {
	usr, err := svc.repo.GetByLoginID(ctx, core.CleanString(loginID, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by loginId")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	usr.LastLogin = time.Now().UTC()
	return svc.save(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByLoginID(ctx context.Context, loginID string) (User, error) {
	return svc.repo.GetByLoginID(ctx, core.CleanString(loginID, true /* lower */))
}

// ChangePassword replaces the password of usr after checking the current one; cp must be validated.
func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error) {
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return User{}, core.NewFieldValidationError("currentPassword", "invalid password")
	}
	if err := usr.SetPassword(cp.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.save(ctx, usr)
}

// SetPassword sets a password without policy checks (generated credentials, admin resets).
func (svc *Service) SetPassword(ctx context.Context, id, pwd string) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.save(ctx, usr)
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	return svc.save(ctx, usr)
}

// Link points the user to its student or teacher profile.
func (svc *Service) Link(ctx context.Context, id, refID string) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.RefID = refID
	return svc.save(ctx, usr)
}

// Rename keeps the account name and loginId in sync with the linked profile.
func (svc *Service) Rename(ctx context.Context, id, name, loginID string) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Name = core.CleanString(name)
	usr.LoginID = core.CleanString(loginID, true /* lower */)
	usr, err = svc.save(ctx, usr)
	if errors.Cause(err) == ErrLoginIDExists {
		return User{}, core.NewValidationError(ErrLoginIDExists, core.FieldError{Field: "email", Error: ErrLoginIDExists.Error()})
	}
	return usr, err
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *Service) save(ctx context.Context, usr User) (User, error) {
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.Update(ctx, usr)
}
