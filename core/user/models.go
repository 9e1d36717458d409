package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LoginID      string    `json:"loginId"`
	Role         string    `json:"role"`
	RefID        string    `json:"refId"`
	IsActive     bool      `json:"isActive"`
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"lastLogin"` // UTC
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	LoginID  string `json:"loginId" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
	RefID    string `json:"refId"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.LoginID = core.CleanString(nu.LoginID, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// ChangePassword is submitted by a user replacing their own password.
type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`

	// user attributes the new password must not resemble
	name    string
	loginID string
}

func (cp *ChangePassword) Validate(usr User, validate *validator.Validate) error {
	cp.name = usr.Name
	cp.loginID = usr.LoginID
	return validate.Struct(cp)
}
