package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core/user"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, is_active, roles, password_hash,
	onboarding_completed, onboarding_completed_at, created_at, updated_at`

type userRepository struct {
	db sqlx.ExtContext
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db sqlx.ExtContext) user.Repository {
	return &userRepository{db: db}
}

// userRow carries the roles as a postgres text[].
type userRow struct {
	user.User
	Roles pq.StringArray `db:"roles"`
}

func toRow(usr user.User) userRow {
	usr.CreatedAt = usr.CreatedAt.UTC()
	usr.UpdatedAt = usr.UpdatedAt.UTC()
	return userRow{User: usr, Roles: pq.StringArray(usr.Roles)}
}

func (r userRow) user() user.User {
	usr := r.User
	usr.Roles = []string(r.Roles)
	return usr
}

// trapErr maps "no rows" to user.ErrNotFound and unique violations to user.ErrEmailExists.
func trapErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return user.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO "user" (` + userColumns + `)
		VALUES (:id, :name, :email, :is_active, :roles, :password_hash,
			:onboarding_completed, :onboarding_completed_at, :created_at, :updated_at)`
	row := toRow(usr)
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return user.User{}, trapErr(err, "inserting user")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return user.User{}, trapErr(err, "finding user by ID")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE email = $1`
	if err := sqlx.GetContext(ctx, repo.db, &row, q, email); err != nil {
		return user.User{}, trapErr(err, "finding user by email")
	}
	return row.user(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user" SET
			name = :name,
			email = :email,
			is_active = :is_active,
			roles = :roles,
			password_hash = :password_hash,
			onboarding_completed = :onboarding_completed,
			onboarding_completed_at = :onboarding_completed_at,
			updated_at = :updated_at
		WHERE id = :id`
	row := toRow(usr)
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return user.User{}, trapErr(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return row.user(), nil
}
