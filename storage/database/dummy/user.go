package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/ushauri/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.table {
		if u.Email == usr.Email && u.ID != usr.ID {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryMentors(ctx context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var mentors []user.User
	for _, u := range repo.query() {
		if !u.IsMentor() {
			continue
		}
		if filter.Search != "" && !matchesSearch(u, filter.Search) {
			continue
		}
		if filter.Expertise != "" && !hasExpertise(u, filter.Expertise) {
			continue
		}
		mentors = append(mentors, u)
	}

	switch filter.SortBy {
	case "students":
		sort.Slice(mentors, func(i, j int) bool { return mentors[i].StudentsMentored > mentors[j].StudentsMentored })
	case "rate":
		sort.Slice(mentors, func(i, j int) bool { return mentors[i].HourlyRate < mentors[j].HourlyRate })
	default:
		sort.Slice(mentors, func(i, j int) bool { return mentors[i].Rating > mentors[j].Rating })
	}

	total := len(mentors)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return mentors[start:end], total, nil
}

func matchesSearch(u user.User, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(u.Name), search) {
		return true
	}
	for _, tag := range u.Expertise {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func hasExpertise(u user.User, expertise string) bool {
	for _, tag := range u.Expertise {
		if strings.EqualFold(tag, expertise) {
			return true
		}
	}
	return false
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}
