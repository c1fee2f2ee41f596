package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/ushauri/core/mentorship"
	"github.com/trezcool/ushauri/core/user"
)

type mentorshipRepository struct {
	db    *mentorshipTable
	users *userTable
}

var _ mentorship.Repository = (*mentorshipRepository)(nil) // interface compliance check

func NewMentorshipRepository(db *DB) *mentorshipRepository {
	return &mentorshipRepository{db: db.mentorship, users: db.user}
}

func (repo *mentorshipRepository) LinkExists(ctx context.Context, studentID, mentorID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.links[studentID][mentorID], nil
}

func (repo *mentorshipRepository) CreateLink(ctx context.Context, studentID, mentorID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.links[studentID][mentorID] {
		return mentorship.ErrAlreadyLinked
	}
	if repo.db.links[studentID] == nil {
		repo.db.links[studentID] = make(map[string]bool)
	}
	repo.db.links[studentID][mentorID] = true

	repo.users.Lock()
	defer repo.users.Unlock()
	if mentor, ok := repo.users.table[mentorID]; ok {
		mentor.StudentsMentored++
	}
	return nil
}

func (repo *mentorshipRepository) RemoveLink(ctx context.Context, studentID, mentorID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.links[studentID], mentorID)
	return nil
}

func (repo *mentorshipRepository) ListMentors(ctx context.Context, studentID string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	mentors := make([]user.User, 0, len(repo.db.links[studentID]))
	for mentorID := range repo.db.links[studentID] {
		if mentor, ok := repo.users.table[mentorID]; ok {
			mentors = append(mentors, *mentor)
		}
	}
	sort.Slice(mentors, func(i, j int) bool { return mentors[i].Name < mentors[j].Name })
	return mentors, nil
}

func (repo *mentorshipRepository) ListStudents(ctx context.Context, mentorID string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	var students []user.User
	for studentID, mentors := range repo.db.links {
		if !mentors[mentorID] {
			continue
		}
		if student, ok := repo.users.table[studentID]; ok {
			students = append(students, *student)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}
