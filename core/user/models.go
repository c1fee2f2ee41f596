package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ushauri/core"
)

// Role discriminates the two account specializations sharing the base User
// record. Role-specific fields live on User behind this tag; there is no
// runtime field probing anywhere downstream.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

var AllRoles = []Role{RoleStudent, RoleMentor}

func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleMentor
}

const DefaultProfileImage = "/api/placeholder/200/200"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    time.Time `json:"-"`         // UTC

	// student fields
	StudentID string `json:"studentId,omitempty"`

	// mentor fields
	Expertise        []string `json:"expertise,omitempty"`
	Qualifications   []string `json:"qualifications,omitempty"`
	Institution      string   `json:"institution,omitempty"`
	HourlyRate       float64  `json:"hourlyRate,omitempty"`
	Rating           float64  `json:"rating"`
	ProfileImage     string   `json:"profileImage,omitempty"`
	Description      string   `json:"description,omitempty"`
	StudentsMentored int      `json:"studentsmentored"`
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

func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsMentor() bool  { return u.Role == RoleMentor }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,role"`

	// student fields
	StudentID string `json:"studentId,omitempty"`

	// mentor fields; required when Role == RoleMentor (struct-level validation)
	Expertise      []string `json:"expertise,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	Institution    string   `json:"institution,omitempty"`
	Description    string   `json:"description,omitempty"`
	HourlyRate     float64  `json:"hourlyRate,omitempty" validate:"gte=0"`
	ProfileImage   string   `json:"profileImage,omitempty"`
}

func (nu *NewUser) Validate(svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User. Role-specific fields are only applied to accounts of that role.
type UpdateUser struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`

	// changing the password requires the current one
	CurrentPassword string `json:"currentPassword" validate:"required_with=NewPassword"`
	NewPassword     string `json:"newPassword"`

	// student fields
	StudentID string `json:"studentId,omitempty"`

	// mentor fields
	Expertise      []string `json:"expertise,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	Institution    string   `json:"institution,omitempty"`
	Description    string   `json:"description,omitempty"`
	HourlyRate     *float64 `json:"hourlyRate,omitempty" validate:"omitempty,gte=0"`
	ProfileImage   string   `json:"profileImage,omitempty"`
}

func (uu *UpdateUser) Validate(origUsr User, svc Service) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email != "" && uu.Email != origUsr.Email {
		return svc.CheckEmailUniqueness(uu.Email, origUsr)
	}
	return nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"confirmPassword,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// QueryFilter narrows and pages a mentor search.
// Search does a case-insensitive match on Name or any expertise tag.
type QueryFilter struct {
	Search    string `query:"search"`
	Expertise string `query:"expertise"`
	SortBy    string `query:"sortBy"` // rating (default) | students | rate
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if qf.Expertise == "all" {
		qf.Expertise = ""
	}
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 {
		qf.Limit = 9
	}
	switch qf.SortBy {
	case "rating", "students", "rate":
	default:
		qf.SortBy = "rating"
	}
}

// MentorPage is one page of a mentor search result.
type MentorPage struct {
	Mentors    []User `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}
