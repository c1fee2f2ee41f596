package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core/meeting"
)

type dbMeeting struct {
	MeetID        string    `db:"meet_id"`
	MentorID      string    `db:"mentor_id"`
	StudentID     string    `db:"student_id"`
	ScheduledTime time.Time `db:"scheduled_time"`
	MeetTime      string    `db:"meet_time"`
	Status        string    `db:"status"`
	MeetType      string    `db:"meet_type"`
	HourlyRate    float64   `db:"hourly_rate"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

const meetingColumns = `meet_id, mentor_id, student_id, scheduled_time, meet_time, status,
	meet_type, hourly_rate, created_at, updated_at`

type meetingRepository struct {
	db *sqlx.DB
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *sqlx.DB) *meetingRepository {
	return &meetingRepository{db: db}
}

func (repo meetingRepository) pack(m meeting.Meeting) dbMeeting {
	return dbMeeting{
		MeetID:        m.MeetID,
		MentorID:      m.MentorID,
		StudentID:     m.StudentID,
		ScheduledTime: m.ScheduledTime.UTC(),
		MeetTime:      m.MeetTime,
		Status:        string(m.Status),
		MeetType:      m.MeetType,
		HourlyRate:    m.HourlyRate,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func (repo meetingRepository) unpack(m dbMeeting) meeting.Meeting {
	return meeting.Meeting{
		MeetID:        m.MeetID,
		MentorID:      m.MentorID,
		StudentID:     m.StudentID,
		ScheduledTime: m.ScheduledTime,
		MeetTime:      m.MeetTime,
		Status:        meeting.Status(m.Status),
		MeetType:      m.MeetType,
		HourlyRate:    m.HourlyRate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (repo meetingRepository) CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	dbm := repo.pack(m)
	query := `
	INSERT INTO meet (` + meetingColumns + `)
	VALUES (:meet_id, :mentor_id, :student_id, :scheduled_time, :meet_time, :status, :meet_type,
		:hourly_rate, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, dbm); err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	return repo.unpack(dbm), nil
}

func (repo meetingRepository) GetMeetingByID(ctx context.Context, id string) (meeting.Meeting, error) {
	var m dbMeeting
	query := `SELECT ` + meetingColumns + ` FROM meet WHERE meet_id = $1`
	if err := repo.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return meeting.Meeting{}, meeting.ErrNotFound
		}
		return meeting.Meeting{}, errors.Wrap(err, "finding meeting by ID")
	}
	return repo.unpack(m), nil
}

func (repo meetingRepository) UpdateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	dbm := repo.pack(m)
	query := `
	UPDATE meet SET
		scheduled_time = :scheduled_time, meet_time = :meet_time, status = :status,
		updated_at = :updated_at
	WHERE meet_id = :meet_id`
	res, err := repo.db.NamedExecContext(ctx, query, dbm)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "updating meeting")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	return repo.unpack(dbm), nil
}

func (repo meetingRepository) MentorBusy(ctx context.Context, mentorID string, from, to time.Time, excludedMeetings ...meeting.Meeting) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM meet
		WHERE mentor_id = ? AND status <> 'cancelled' AND scheduled_time BETWEEN ? AND ?`
	args := []interface{}{mentorID, from.UTC(), to.UTC()}
	if len(excludedMeetings) > 0 {
		ids := make([]string, 0, len(excludedMeetings))
		for _, m := range excludedMeetings {
			ids = append(ids, m.MeetID)
		}
		query += ` AND meet_id NOT IN (?)`
		args = append(args, ids)
	}
	query += `)`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return false, errors.Wrap(err, "building availability query")
	}

	var busy bool
	if err = repo.db.GetContext(ctx, &busy, repo.db.Rebind(query), args...); err != nil {
		return false, errors.Wrap(err, "checking mentor availability")
	}
	return busy, nil
}

func (repo meetingRepository) ListMeetingsForUser(ctx context.Context, userID string) ([]meeting.Meeting, error) {
	query := `
	SELECT ` + meetingColumns + `
	FROM meet
	WHERE student_id = $1 OR mentor_id = $1
	ORDER BY scheduled_time ASC`

	var rows []dbMeeting
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "listing meetings")
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, m := range rows {
		meetings = append(meetings, repo.unpack(m))
	}
	return meetings, nil
}
