package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ongoza/cyberhub/core"
)

// Roles
const (
	RoleStudent  = "student"
	RoleMentor   = "mentor"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

var (
	AllRoles = []string{RoleStudent, RoleMentor, RoleEmployer, RoleAdmin}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Mentor", Value: RoleMentor},
		{Name: "Employer", Value: RoleEmployer},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID                    string     `json:"id" db:"id"`
	Name                  string     `json:"name" db:"name"`
	Email                 string     `json:"email" db:"email"`
	IsActive              bool       `json:"is_active" db:"is_active"`
	Roles                 []string   `json:"roles" db:"-"`
	PasswordHash          []byte     `json:"-" db:"password_hash"`
	OnboardingCompleted   bool       `json:"onboarding_completed" db:"onboarding_completed"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty" db:"onboarding_completed_at"` // UTC
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`                                     // UTC
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`                                     // UTC
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

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required,notblank"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if len(nu.Roles) == 0 {
		nu.Roles = []string{RoleStudent}
	}
}

// SetPassword defines what is needed to replace a User's password.
type SetPassword struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}
