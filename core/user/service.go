package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrInvalidPassword      = errors.New("current password is incorrect")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// QueryMentors applies QueryFilter and returns one page of mentors
		// plus the total match count.
		QueryMentors(ctx context.Context, filter QueryFilter) ([]User, int, error)
	}

	Service interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetMentorByID(ctx context.Context, id string) (User, error)
		UpdateProfile(ctx context.Context, id string, uu UpdateUser) (User, error)
		QueryMentors(ctx context.Context, filter QueryFilter) (MentorPage, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		log:     log,
	}
}

func (svc *service) CheckEmailUniqueness(email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, excludedUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewConflictError(err)
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch nu.Role {
	case RoleStudent:
		usr.StudentID = core.CleanString(nu.StudentID)
	case RoleMentor:
		usr.Expertise = nu.Expertise
		usr.Qualifications = nu.Qualifications
		usr.Institution = nu.Institution
		usr.Description = nu.Description
		usr.HourlyRate = nu.HourlyRate
		usr.ProfileImage = nu.ProfileImage
		if usr.ProfileImage == "" {
			usr.ProfileImage = DefaultProfileImage
		}
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewConflictError(err)
		}
		return User{}, err
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

// Authenticate verifies credentials. The failure is the same whether the
// email is unknown or the password is wrong.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}

	usr.LastLogin = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetMentorByID(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !usr.IsMentor() {
		return User{}, ErrNotFound
	}
	return usr, nil
}

// UpdateProfile merges allowed fields into the stored account. Fields owned
// by the other role are ignored; a password change requires the current one.
func (svc *service) UpdateProfile(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}

	if uu.NewPassword != "" {
		if err = usr.CheckPassword(uu.CurrentPassword); err != nil {
			return User{}, ErrInvalidPassword
		}
		if err = usr.SetPassword(uu.NewPassword); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}

	switch usr.Role {
	case RoleStudent:
		if uu.StudentID != "" {
			usr.StudentID = core.CleanString(uu.StudentID)
		}
	case RoleMentor:
		if uu.Expertise != nil {
			usr.Expertise = uu.Expertise
		}
		if uu.Qualifications != nil {
			usr.Qualifications = uu.Qualifications
		}
		if uu.Institution != "" {
			usr.Institution = uu.Institution
		}
		if uu.Description != "" {
			usr.Description = uu.Description
		}
		if uu.HourlyRate != nil {
			usr.HourlyRate = *uu.HourlyRate
		}
		if uu.ProfileImage != "" {
			usr.ProfileImage = uu.ProfileImage
		}
	}

	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewConflictError(err)
		}
		return User{}, err
	}
	return usr, nil
}

func (svc *service) QueryMentors(ctx context.Context, filter QueryFilter) (MentorPage, error) {
	filter.Clean()
	mentors, total, err := svc.repo.QueryMentors(ctx, filter)
	if err != nil {
		return MentorPage{}, errors.Wrap(err, "querying mentors")
	}
	if mentors == nil {
		mentors = []User{}
	}
	totalPages := (total + filter.Limit - 1) / filter.Limit
	return MentorPage{
		Mentors:    mentors,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct {
			Name string
			Role Role
		}{usr.Name, usr.Role},
	})
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		svc.log.Error(fmt.Sprintf("making password reset token: %v", err), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{usr.Name, EncodeUID(usr), token},
	})
}
