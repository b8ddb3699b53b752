package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, name, email, password_hash, phone, preferred_language, preferred_currency, theme, role, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Phone, &u.PreferredLanguage, &u.PreferredCurrency, &u.Theme,
		&u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// CreateUserParams carries the fields required to register a user.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

const createUser = `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	role := arg.Role
	if role == "" {
		role = "CUSTOMER"
	}
	return scanUser(q.db.QueryRow(ctx, createUser, arg.Name, arg.Email, arg.PasswordHash, role))
}

const getUserByEmail = `
SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

// UpdateUserProfileParams carries the mutable profile fields.
type UpdateUserProfileParams struct {
	ID                pgtype.UUID
	Name              string
	Email             string
	Phone             pgtype.Text
	PreferredLanguage pgtype.Text
	PreferredCurrency pgtype.Text
	Theme             pgtype.Text
}

const updateUserProfile = `
UPDATE users
SET name = $2, email = $3, phone = $4, preferred_language = $5, preferred_currency = $6, theme = $7, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserProfile,
		arg.ID, arg.Name, arg.Email, arg.Phone, arg.PreferredLanguage, arg.PreferredCurrency, arg.Theme,
	))
}

// UpdateUserPasswordParams identifies a user and its replacement credential hash.
type UpdateUserPasswordParams struct {
	ID           pgtype.UUID
	PasswordHash string
}

const updateUserPassword = `
UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.Exec(ctx, updateUserPassword, arg.ID, arg.PasswordHash)
	return err
}
