// Package mentorship owns the bidirectional student/mentor relationship and
// the mentor's lifetime mentee counter.
//
// The relationship is symmetric: a mentor appears in a student's mentor list
// exactly when the student appears in the mentor's student list. Both sides
// change together or not at all; Repository implementations must commit a
// link (plus the counter increment) atomically.
package mentorship

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/user"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found or you are not a student")
	ErrMentorNotFound  = errors.New("mentor not found")
	ErrAlreadyLinked   = errors.New("you are already mentored by this mentor")
)

type (
	Repository interface {
		LinkExists(ctx context.Context, studentID, mentorID string) (bool, error)
		// CreateLink records the relationship on both sides and increments
		// the mentor's lifetime counter in one transaction. A concurrent
		// duplicate surfaces as ErrAlreadyLinked, never as a half-link.
		CreateLink(ctx context.Context, studentID, mentorID string) error
		// RemoveLink deletes the relationship from both sides; removing an
		// absent link is a no-op. The lifetime counter is left untouched.
		RemoveLink(ctx context.Context, studentID, mentorID string) error
		ListMentors(ctx context.Context, studentID string) ([]user.User, error)
		ListStudents(ctx context.Context, mentorID string) ([]user.User, error)
	}

	// StudentList is a mentor's view of the ledger: current students plus
	// the historical count of everyone they ever mentored.
	StudentList struct {
		Students         []user.User `json:"students"`
		StudentsMentored int         `json:"studentsmentored"`
	}

	Service interface {
		Establish(ctx context.Context, studentID, mentorID string) error
		Dissolve(ctx context.Context, initiatorID string, initiatorRole user.Role, targetID string) error
		ListForStudent(ctx context.Context, studentID string) ([]user.User, error)
		ListForMentor(ctx context.Context, mentorID string) (StudentList, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
	}
}

// Establish links a student to a mentor and bumps the mentor's lifetime
// counter by one. All-or-nothing: no state where only one side recorded
// the link.
func (svc *service) Establish(ctx context.Context, studentID, mentorID string) error {
	student, err := svc.usrRepo.GetUserByID(ctx, studentID)
	if err != nil || !student.IsStudent() {
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "finding student")
		}
		return core.NewNotFoundError(ErrStudentNotFound)
	}
	mentor, err := svc.usrRepo.GetUserByID(ctx, mentorID)
	if err != nil || !mentor.IsMentor() {
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "finding mentor")
		}
		return core.NewNotFoundError(ErrMentorNotFound)
	}

	exists, err := svc.repo.LinkExists(ctx, studentID, mentorID)
	if err != nil {
		return errors.Wrap(err, "checking link")
	}
	if exists {
		return core.NewConflictError(ErrAlreadyLinked)
	}

	if err = svc.repo.CreateLink(ctx, studentID, mentorID); err != nil {
		// a concurrent establish may have won the race since the check above
		if errors.Cause(err) == ErrAlreadyLinked {
			return core.NewConflictError(err)
		}
		return errors.Wrap(err, "creating link")
	}
	return nil
}

// Dissolve removes the relationship between the initiator and the target,
// whichever role initiates. The mentor's lifetime counter is a historical
// count and is never decremented. Removing an already-absent link succeeds.
func (svc *service) Dissolve(ctx context.Context, initiatorID string, initiatorRole user.Role, targetID string) error {
	if _, err := svc.usrRepo.GetUserByID(ctx, initiatorID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			if initiatorRole == user.RoleMentor {
				return core.NewNotFoundError(ErrMentorNotFound)
			}
			return core.NewNotFoundError(ErrStudentNotFound)
		}
		return errors.Wrap(err, "finding initiator")
	}

	studentID, mentorID := initiatorID, targetID
	if initiatorRole == user.RoleMentor {
		studentID, mentorID = targetID, initiatorID
	}
	return errors.Wrap(svc.repo.RemoveLink(ctx, studentID, mentorID), "removing link")
}

func (svc *service) ListForStudent(ctx context.Context, studentID string) ([]user.User, error) {
	if _, err := svc.usrRepo.GetUserByID(ctx, studentID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, core.NewNotFoundError(ErrStudentNotFound)
		}
		return nil, errors.Wrap(err, "finding student")
	}
	mentors, err := svc.repo.ListMentors(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "listing mentors")
	}
	if mentors == nil {
		mentors = []user.User{}
	}
	return mentors, nil
}

func (svc *service) ListForMentor(ctx context.Context, mentorID string) (StudentList, error) {
	mentor, err := svc.usrRepo.GetUserByID(ctx, mentorID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return StudentList{}, core.NewNotFoundError(ErrMentorNotFound)
		}
		return StudentList{}, errors.Wrap(err, "finding mentor")
	}
	students, err := svc.repo.ListStudents(ctx, mentorID)
	if err != nil {
		return StudentList{}, errors.Wrap(err, "listing students")
	}
	if students == nil {
		students = []user.User{}
	}
	return StudentList{
		Students:         students,
		StudentsMentored: mentor.StudentsMentored,
	}, nil
}
