package pgrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ushauri/core/user"
)

type dbUser struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Email            string         `db:"email"`
	Role             string         `db:"role"`
	PasswordHash     []byte         `db:"password_hash"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	LastLogin        null.Time      `db:"last_login"`
	StudentID        null.String    `db:"student_id"`
	Expertise        pq.StringArray `db:"expertise"`
	Qualifications   pq.StringArray `db:"qualifications"`
	Institution      null.String    `db:"institution"`
	HourlyRate       null.Float64   `db:"hourly_rate"`
	Rating           null.Float64   `db:"rating"`
	ProfileImage     null.String    `db:"profile_image"`
	Description      null.String    `db:"description"`
	StudentsMentored int            `db:"studentsmentored"`
}

const userColumns = `id, name, email, role, password_hash, created_at, updated_at, last_login,
	student_id, expertise, qualifications, institution, hourly_rate, rating, profile_image,
	description, studentsmentored`

const prefixedUserColumns = `u.id, u.name, u.email, u.role, u.password_hash, u.created_at,
	u.updated_at, u.last_login, u.student_id, u.expertise, u.qualifications, u.institution,
	u.hourly_rate, u.rating, u.profile_image, u.description, u.studentsmentored`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) pack(usr user.User) dbUser {
	return dbUser{
		ID:               usr.ID,
		Name:             usr.Name,
		Email:            usr.Email,
		Role:             string(usr.Role),
		PasswordHash:     usr.PasswordHash,
		CreatedAt:        usr.CreatedAt.UTC(),
		UpdatedAt:        usr.UpdatedAt.UTC(),
		LastLogin:        null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		StudentID:        null.NewString(usr.StudentID, usr.StudentID != ""),
		Expertise:        usr.Expertise,
		Qualifications:   usr.Qualifications,
		Institution:      null.NewString(usr.Institution, usr.Institution != ""),
		HourlyRate:       null.NewFloat64(usr.HourlyRate, usr.HourlyRate != 0),
		Rating:           null.NewFloat64(usr.Rating, usr.Rating != 0),
		ProfileImage:     null.NewString(usr.ProfileImage, usr.ProfileImage != ""),
		Description:      null.NewString(usr.Description, usr.Description != ""),
		StudentsMentored: usr.StudentsMentored,
	}
}

func (repo userRepository) unpack(u dbUser) user.User {
	return user.User{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             user.Role(u.Role),
		PasswordHash:     u.PasswordHash,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		LastLogin:        u.LastLogin.Time,
		StudentID:        u.StudentID.String,
		Expertise:        u.Expertise,
		Qualifications:   u.Qualifications,
		Institution:      u.Institution.String,
		HourlyRate:       u.HourlyRate.Float64,
		Rating:           u.Rating.Float64,
		ProfileImage:     u.ProfileImage.String,
		Description:      u.Description.String,
		StudentsMentored: u.StudentsMentored,
	}
}

func (repo userRepository) unpackSlice(slice []dbUser) []user.User {
	users := make([]user.User, 0, len(slice))
	for _, u := range slice {
		users = append(users, repo.unpack(u))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	query += `)`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var exists bool
	if err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	u := repo.pack(usr)

	query := `
	INSERT INTO "user" (` + userColumns + `)
	VALUES (:id, :name, :email, :role, :password_hash, :created_at, :updated_at, :last_login,
		:student_id, :expertise, :qualifications, :institution, :hourly_rate, :rating,
		:profile_image, :description, :studentsmentored)`
	if _, err := repo.db.NamedExecContext(ctx, query, u); err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u dbUser
	query := `SELECT ` + userColumns + ` FROM "user" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &u, query, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u dbUser
	query := `SELECT ` + userColumns + ` FROM "user" WHERE email = $1`
	if err := repo.db.GetContext(ctx, &u, query, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return repo.unpack(u), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	u := repo.pack(usr)

	query := `
	UPDATE "user" SET
		name = :name, email = :email, password_hash = :password_hash, updated_at = :updated_at,
		last_login = :last_login, student_id = :student_id, expertise = :expertise,
		qualifications = :qualifications, institution = :institution, hourly_rate = :hourly_rate,
		rating = :rating, profile_image = :profile_image, description = :description,
		studentsmentored = :studentsmentored
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if isUniqueViolation(errors.Cause(err)) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unpack(u), nil
}

func (repo userRepository) QueryMentors(ctx context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	where := []string{`role = 'mentor'`}
	var args []interface{}

	// mentors with Name or any expertise tag matching the search keyword
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(name ILIKE $%d OR EXISTS (SELECT 1 FROM UNNEST(expertise) tag WHERE tag ILIKE $%d))`, n, n))
	}
	if filter.Expertise != "" {
		args = append(args, filter.Expertise)
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM UNNEST(expertise) tag WHERE tag ILIKE $%d)`, len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM "user" WHERE ` + whereClause
	if err := repo.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting mentors")
	}

	orderBy := `rating DESC NULLS LAST`
	switch filter.SortBy {
	case "students":
		orderBy = `studentsmentored DESC`
	case "rate":
		orderBy = `hourly_rate ASC NULLS LAST`
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM "user" WHERE %s ORDER BY %s, name ASC LIMIT $%d OFFSET $%d`,
		whereClause, orderBy, len(args)-1, len(args))

	var mentors []dbUser
	if err := repo.db.SelectContext(ctx, &mentors, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying mentors")
	}
	return repo.unpackSlice(mentors), total, nil
}
