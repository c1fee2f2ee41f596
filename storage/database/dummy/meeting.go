package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/ushauri/core/meeting"
)

type meetingRepository struct {
	db *meetingTable
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *DB) *meetingRepository {
	return &meetingRepository{db: db.meeting}
}

func (repo *meetingRepository) CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[m.MeetID] = &m
	return m, nil
}

func (repo *meetingRepository) GetMeetingByID(ctx context.Context, id string) (meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *m, nil
	}
	return meeting.Meeting{}, meeting.ErrNotFound
}

func (repo *meetingRepository) UpdateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[m.MeetID]; !ok {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	repo.db.table[m.MeetID] = &m
	return m, nil
}

func (repo *meetingRepository) MentorBusy(ctx context.Context, mentorID string, from, to time.Time, excludedMeetings ...meeting.Meeting) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.db.table {
		if m.MentorID != mentorID || m.Status == meeting.StatusCancelled {
			continue
		}
		if isExcludedMeeting(*m, excludedMeetings) {
			continue
		}
		// bounds inclusive
		if !m.ScheduledTime.Before(from) && !m.ScheduledTime.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *meetingRepository) ListMeetingsForUser(ctx context.Context, userID string) ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var meetings []meeting.Meeting
	for _, m := range repo.db.table {
		if m.StudentID == userID || m.MentorID == userID {
			meetings = append(meetings, *m)
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].ScheduledTime.Before(meetings[j].ScheduledTime)
	})
	return meetings, nil
}

func isExcludedMeeting(m meeting.Meeting, excluded []meeting.Meeting) bool {
	for _, e := range excluded {
		if e.MeetID == m.MeetID {
			return true
		}
	}
	return false
}
