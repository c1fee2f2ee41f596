// Package meeting books and manages sessions between students and mentors.
//
// A booking at time T is rejected when the mentor already has a non-cancelled
// session scheduled anywhere in [T-30m, T+90m] (a one hour session plus a
// 30 minute buffer on each side), bounds inclusive.
package meeting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/user"
)

// Availability window around an existing session's start time.
const (
	windowBefore = 30 * time.Minute
	windowAfter  = 90 * time.Minute
)

var (
	// errors
	ErrNotFound          = errors.New("meeting not found")
	ErrMentorNotFound    = errors.New("mentor not found")
	ErrMentorUnavailable = errors.New("mentor is not available at this time")
)

type (
	Repository interface {
		CreateMeeting(ctx context.Context, m Meeting) (Meeting, error)
		GetMeetingByID(ctx context.Context, id string) (Meeting, error)
		UpdateMeeting(ctx context.Context, m Meeting) (Meeting, error)
		// MentorBusy reports whether the mentor already has a non-cancelled
		// session with a start time in [from, to] (bounds inclusive).
		// excludedMeetings are ignored, eg. when rescheduling one of them.
		MentorBusy(ctx context.Context, mentorID string, from, to time.Time, excludedMeetings ...Meeting) (bool, error)
		// ListMeetingsForUser returns the user's sessions on either side,
		// ordered by scheduled time ascending.
		ListMeetingsForUser(ctx context.Context, userID string) ([]Meeting, error)
	}

	Service interface {
		Book(ctx context.Context, studentID string, nm NewMeeting) (Meeting, error)
		Get(ctx context.Context, userID, meetID string) (Detail, error)
		Update(ctx context.Context, userID, meetID string, um UpdateMeeting) (Meeting, error)
		ListForUser(ctx context.Context, userID string) ([]Meeting, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		log     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, log core.Logger) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		log:     log,
	}
}

// Book schedules a session after checking the mentor's availability window.
// The mentor's current hourly rate is captured on the booking.
func (svc *service) Book(ctx context.Context, studentID string, nm NewMeeting) (Meeting, error) {
	mentor, err := svc.usrRepo.GetUserByID(ctx, nm.MentorID)
	if err != nil || !mentor.IsMentor() {
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return Meeting{}, errors.Wrap(err, "finding mentor")
		}
		return Meeting{}, core.NewNotFoundError(ErrMentorNotFound)
	}

	from := nm.ScheduledTime.Add(-windowBefore)
	to := nm.ScheduledTime.Add(windowAfter)
	busy, err := svc.repo.MentorBusy(ctx, nm.MentorID, from, to)
	if err != nil {
		return Meeting{}, errors.Wrap(err, "checking mentor availability")
	}
	if busy {
		return Meeting{}, core.NewConflictError(ErrMentorUnavailable)
	}

	now := time.Now().UTC()
	m := Meeting{
		MeetID:        uuid.New().String(),
		MentorID:      nm.MentorID,
		StudentID:     studentID,
		ScheduledTime: nm.ScheduledTime,
		MeetTime:      nm.MeetTime,
		Status:        StatusScheduled,
		MeetType:      nm.MeetType,
		HourlyRate:    mentor.HourlyRate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m, err = svc.repo.CreateMeeting(ctx, m)
	if err != nil {
		return Meeting{}, errors.Wrap(err, "creating meeting")
	}
	return m, nil
}

// Get returns a meeting with both participants resolved. Any authenticated
// user may look one up; the requester's ID and participation flag let the
// client decide what to show.
func (svc *service) Get(ctx context.Context, userID, meetID string) (Detail, error) {
	m, err := svc.repo.GetMeetingByID(ctx, meetID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Detail{}, core.NewNotFoundError(err)
		}
		return Detail{}, errors.Wrap(err, "finding meeting")
	}

	svc.resolveParticipants(ctx, &m)
	return Detail{
		Meeting:       m,
		CurrentUserID: userID,
		IsParticipant: userID == m.StudentID || userID == m.MentorID,
	}, nil
}

// Update lets a participant change the status or reschedule. Rescheduling
// re-runs the availability check against the mentor's other sessions.
func (svc *service) Update(ctx context.Context, userID, meetID string, um UpdateMeeting) (Meeting, error) {
	m, err := svc.repo.GetMeetingByID(ctx, meetID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Meeting{}, core.NewNotFoundError(err)
		}
		return Meeting{}, errors.Wrap(err, "finding meeting")
	}
	if userID != m.StudentID && userID != m.MentorID {
		return Meeting{}, core.NewNotFoundError(ErrNotFound)
	}

	if um.ScheduledTime != nil && !um.ScheduledTime.Equal(m.ScheduledTime) {
		from := um.ScheduledTime.Add(-windowBefore)
		to := um.ScheduledTime.Add(windowAfter)
		busy, err := svc.repo.MentorBusy(ctx, m.MentorID, from, to, m)
		if err != nil {
			return Meeting{}, errors.Wrap(err, "checking mentor availability")
		}
		if busy {
			return Meeting{}, core.NewConflictError(ErrMentorUnavailable)
		}
		m.ScheduledTime = *um.ScheduledTime
	}
	if um.Status != "" {
		m.Status = um.Status
	}
	if um.MeetTime != "" {
		m.MeetTime = um.MeetTime
	}

	m.UpdatedAt = time.Now().UTC()
	m, err = svc.repo.UpdateMeeting(ctx, m)
	if err != nil {
		return Meeting{}, errors.Wrap(err, "updating meeting")
	}
	return m, nil
}

func (svc *service) ListForUser(ctx context.Context, userID string) ([]Meeting, error) {
	meetings, err := svc.repo.ListMeetingsForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing meetings")
	}
	if meetings == nil {
		meetings = []Meeting{}
	}
	for i := range meetings {
		svc.resolveParticipants(ctx, &meetings[i])
	}
	return meetings, nil
}

// resolveParticipants attaches the mentor and student accounts when they can
// be loaded; a missing account leaves the pointer nil rather than failing the
// whole read.
func (svc *service) resolveParticipants(ctx context.Context, m *Meeting) {
	if mentor, err := svc.usrRepo.GetUserByID(ctx, m.MentorID); err == nil {
		m.Mentor = &mentor
	}
	if student, err := svc.usrRepo.GetUserByID(ctx, m.StudentID); err == nil {
		m.Student = &student
	}
}
