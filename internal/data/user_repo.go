package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flixbase/authsvc/internal/data/pgxutil"
	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
	apperrors "github.com/flixbase/authsvc/internal/errors"
)

// UserRepo provides database operations for user records. Email uniqueness is
// enforced by the users table primary key, so concurrent inserts for the same
// email cannot produce duplicate records.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// userRow maps the users table columns for pgx row collection.
type userRow struct {
	Email          string `db:"email"`
	Name           string `db:"name"`
	HashedPassword string `db:"hashed_password"`
	IsAdmin        bool   `db:"is_admin"`
}

func (row userRow) toDomain() *domainauth.User {
	return &domainauth.User{
		Email:          row.Email,
		Name:           row.Name,
		HashedPassword: row.HashedPassword,
		IsAdmin:        row.IsAdmin,
	}
}

const userSelectQuery = `
	SELECT email, name, hashed_password, is_admin
	FROM users
	WHERE email = $1`

// FindByEmail retrieves a user by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domainauth.User, error) {
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userSelectQuery, email)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFoundf("no user found for email %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", apperrors.MapDBError(err))
	}
	return row.toDomain(), nil
}

// Insert stores a new user. A duplicate email is reported as a structured
// conflict error via the unique-violation SQLSTATE, not by matching message
// text.
func (r *UserRepo) Insert(ctx context.Context, user *domainauth.User) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO users (email, name, hashed_password, is_admin)
			VALUES ($1, $2, $3, $4)`,
			user.Email, user.Name, user.HashedPassword, user.IsAdmin,
		)
		return err
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Upsert stores the user, overwriting any existing record with the same
// email. Admin promotion uses this so the email-uniqueness invariant holds on
// the promote path exactly as it does on insert: the overwrite is
// last-write-wins and can never create a second record for the email.
func (r *UserRepo) Upsert(ctx context.Context, user *domainauth.User) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO users (email, name, hashed_password, is_admin)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET
				name = EXCLUDED.name,
				hashed_password = EXCLUDED.hashed_password,
				is_admin = EXCLUDED.is_admin`,
			user.Email, user.Name, user.HashedPassword, user.IsAdmin,
		)
		return err
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Delete removes the user for the given email and reports whether a record
// existed. Deleting an absent user is a successful no-op.
func (r *UserRepo) Delete(ctx context.Context, email string) (bool, error) {
	var existed bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
		if err != nil {
			return err
		}
		existed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return existed, nil
}
