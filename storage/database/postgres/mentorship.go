package pgrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/mentorship"
	"github.com/trezcool/ushauri/core/user"
)

type mentorshipRepository struct {
	db *sqlx.DB
}

var _ mentorship.Repository = (*mentorshipRepository)(nil) // interface compliance check

func NewMentorshipRepository(db *sqlx.DB) *mentorshipRepository {
	return &mentorshipRepository{db: db}
}

func (repo mentorshipRepository) LinkExists(ctx context.Context, studentID, mentorID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM mentorship WHERE student_id = $1 AND mentor_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, query, studentID, mentorID); err != nil {
		return false, errors.Wrap(err, "checking link")
	}
	return exists, nil
}

// CreateLink inserts the link and bumps the mentor's lifetime counter in one
// transaction. The composite primary key on (student_id, mentor_id) turns a
// concurrent duplicate into a unique violation, so the counter can never be
// incremented twice for the same link.
func (repo mentorshipRepository) CreateLink(ctx context.Context, studentID, mentorID string) error {
	return core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		insert := `INSERT INTO mentorship (student_id, mentor_id, created_at) VALUES ($1, $2, NOW())`
		if _, err := tx.ExecContext(ctx, insert, studentID, mentorID); err != nil {
			if isUniqueViolation(errors.Cause(err)) {
				return mentorship.ErrAlreadyLinked
			}
			return errors.Wrap(err, "inserting link")
		}

		bump := `UPDATE "user" SET studentsmentored = studentsmentored + 1 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, bump, mentorID); err != nil {
			return errors.Wrap(err, "incrementing studentsmentored")
		}
		return nil
	})
}

func (repo mentorshipRepository) RemoveLink(ctx context.Context, studentID, mentorID string) error {
	query := `DELETE FROM mentorship WHERE student_id = $1 AND mentor_id = $2`
	if _, err := repo.db.ExecContext(ctx, query, studentID, mentorID); err != nil {
		return errors.Wrap(err, "deleting link")
	}
	return nil
}

func (repo mentorshipRepository) ListMentors(ctx context.Context, studentID string) ([]user.User, error) {
	query := `
	SELECT ` + prefixedUserColumns + `
	FROM "user" u
	JOIN mentorship m ON m.mentor_id = u.id
	WHERE m.student_id = $1
	ORDER BY u.name ASC`

	var mentors []dbUser
	if err := repo.db.SelectContext(ctx, &mentors, query, studentID); err != nil {
		return nil, errors.Wrap(err, "listing mentors")
	}
	return userRepository{}.unpackSlice(mentors), nil
}

func (repo mentorshipRepository) ListStudents(ctx context.Context, mentorID string) ([]user.User, error) {
	query := `
	SELECT ` + prefixedUserColumns + `
	FROM "user" u
	JOIN mentorship m ON m.student_id = u.id
	WHERE m.mentor_id = $1
	ORDER BY u.name ASC`

	var students []dbUser
	if err := repo.db.SelectContext(ctx, &students, query, mentorID); err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	return userRepository{}.unpackSlice(students), nil
}
