package meeting

import (
	"time"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/user"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type (
	// Meeting is a booked session between a student and a mentor.
	Meeting struct {
		MeetID        string    `json:"meetId" db:"meet_id"`
		MentorID      string    `json:"mentorId" db:"mentor_id"`
		StudentID     string    `json:"studentId" db:"student_id"`
		ScheduledTime time.Time `json:"scheduledTime" db:"scheduled_time"`
		MeetTime      string    `json:"meetTime" db:"meet_time"` // display slot, eg. "10:00 AM"
		Status        Status    `json:"status" db:"status"`
		MeetType      string    `json:"meetType" db:"meet_type"`
		HourlyRate    float64   `json:"hourlyRate" db:"hourly_rate"`
		CreatedAt     time.Time `json:"createdAt" db:"created_at"`
		UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`

		Mentor  *user.User `json:"mentor,omitempty" db:"-"`
		Student *user.User `json:"student,omitempty" db:"-"`
	}

	// NewMeeting is what a student provides to book a session.
	NewMeeting struct {
		MentorID      string    `json:"mentorId" validate:"required"`
		ScheduledTime time.Time `json:"scheduledTime" validate:"required"`
		MeetTime      string    `json:"meetTime" validate:"required"`
		MeetType      string    `json:"meetType"`
	}

	// UpdateMeeting carries the fields a participant may change.
	UpdateMeeting struct {
		Status        Status     `json:"status" validate:"omitempty,meetingstatus"`
		ScheduledTime *time.Time `json:"scheduledTime"`
		MeetTime      string     `json:"meetTime"`
	}

	// Detail is a single meeting as seen by the requesting participant.
	Detail struct {
		Meeting
		CurrentUserID string `json:"currentUserId"`
		IsParticipant bool   `json:"isParticipant"`
	}
)

func (nm *NewMeeting) Validate() error {
	if err := core.Validate.Struct(nm); err != nil {
		return err
	}
	if nm.ScheduledTime.Before(time.Now()) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "scheduledTime", Error: "scheduled time must be in the future"})
	}
	return nil
}

func (um *UpdateMeeting) Validate() error {
	return core.Validate.Struct(um)
}
