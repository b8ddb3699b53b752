package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
)

// Querier is the subset of the query layer the user service depends on.
type Querier interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (db.User, error)
	UpdateUserProfile(ctx context.Context, arg db.UpdateUserProfileParams) (db.User, error)
	UpdateUserPassword(ctx context.Context, arg db.UpdateUserPasswordParams) error
}

// Service manages account profiles. Every operation takes the caller as an
// explicit principal; only the owner or an admin may touch a profile.
type Service struct {
	queries Querier
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries Querier
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{queries: cfg.Queries}
}

// Principal identifies the caller for authorization checks.
type Principal struct {
	UserID string
	Admin  bool
}

// Profile is the account payload.
type Profile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             *string   `json:"phone,omitempty"`
	PreferredLanguage *string   `json:"preferred_language,omitempty"`
	PreferredCurrency *string   `json:"preferred_currency,omitempty"`
	Theme             *string   `json:"theme,omitempty"`
	Role              string    `json:"role"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpdateInput carries the mutable profile fields. Nil fields are left
// unchanged. When CurrentPassword and NewPassword are both set the stored
// credential is rewritten after verifying the current one.
type UpdateInput struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Phone             *string `json:"phone"`
	PreferredLanguage *string `json:"preferred_language"`
	PreferredCurrency *string `json:"preferred_currency"`
	Theme             *string `json:"theme"`
	CurrentPassword   *string `json:"current_password"`
	NewPassword       *string `json:"new_password"`
}

// Get returns a profile readable by its owner or an admin.
func (s *Service) Get(ctx context.Context, caller Principal, userID string) (Profile, error) {
	if err := authorize(caller, userID); err != nil {
		return Profile{}, err
	}
	row, err := s.load(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(row), nil
}

// Update applies profile edits and, when requested, a password change.
func (s *Service) Update(ctx context.Context, caller Principal, userID string, input UpdateInput) (Profile, error) {
	if err := authorize(caller, userID); err != nil {
		return Profile{}, err
	}
	row, err := s.load(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if input.CurrentPassword != nil || input.NewPassword != nil {
		if err := s.changePassword(ctx, row, input); err != nil {
			return Profile{}, err
		}
	}

	params := db.UpdateUserProfileParams{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		Phone:             row.Phone,
		PreferredLanguage: row.PreferredLanguage,
		PreferredCurrency: row.PreferredCurrency,
		Theme:             row.Theme,
	}
	if input.Name != nil {
		if *input.Name == "" {
			return Profile{}, badRequest("name cannot be empty")
		}
		params.Name = *input.Name
	}
	if input.Email != nil {
		if *input.Email == "" {
			return Profile{}, badRequest("email cannot be empty")
		}
		params.Email = *input.Email
	}
	if input.Phone != nil {
		params.Phone = pgtype.Text{String: *input.Phone, Valid: *input.Phone != ""}
	}
	if input.PreferredLanguage != nil {
		params.PreferredLanguage = pgtype.Text{String: *input.PreferredLanguage, Valid: *input.PreferredLanguage != ""}
	}
	if input.PreferredCurrency != nil {
		params.PreferredCurrency = pgtype.Text{String: *input.PreferredCurrency, Valid: *input.PreferredCurrency != ""}
	}
	if input.Theme != nil {
		params.Theme = pgtype.Text{String: *input.Theme, Valid: *input.Theme != ""}
	}

	updated, err := s.queries.UpdateUserProfile(ctx, params)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Profile{}, &common.AppError{
				Code:       "EMAIL_ALREADY_USED",
				Message:    "email is already registered",
				HTTPStatus: http.StatusConflict,
				Err:        err,
			}
		}
		return Profile{}, err
	}
	return toProfile(updated), nil
}

func (s *Service) changePassword(ctx context.Context, row db.User, input UpdateInput) error {
	if input.CurrentPassword == nil || input.NewPassword == nil {
		return badRequest("current_password and new_password must be provided together")
	}
	if len(*input.NewPassword) < 8 {
		return badRequest("new password must be at least 8 characters")
	}
	match, err := argon2id.ComparePasswordAndHash(*input.CurrentPassword, row.PasswordHash)
	if err != nil {
		return err
	}
	if !match {
		return badRequest("current password is incorrect")
	}
	hash, err := argon2id.CreateHash(*input.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	return s.queries.UpdateUserPassword(ctx, db.UpdateUserPasswordParams{ID: row.ID, PasswordHash: hash})
}

func (s *Service) load(ctx context.Context, userID string) (db.User, error) {
	id, err := db.UUID(userID)
	if err != nil {
		return db.User{}, notFound()
	}
	row, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.User{}, notFound()
		}
		return db.User{}, err
	}
	return row, nil
}

func authorize(caller Principal, userID string) error {
	if caller.Admin || caller.UserID == userID {
		return nil
	}
	return &common.AppError{
		Code:       "FORBIDDEN",
		Message:    "you do not have access to this profile",
		HTTPStatus: http.StatusForbidden,
	}
}

func toProfile(row db.User) Profile {
	p := Profile{
		ID:    db.UUIDString(row.ID),
		Name:  row.Name,
		Email: row.Email,
		Role:  row.Role,
	}
	if row.Phone.Valid {
		v := row.Phone.String
		p.Phone = &v
	}
	if row.PreferredLanguage.Valid {
		v := row.PreferredLanguage.String
		p.PreferredLanguage = &v
	}
	if row.PreferredCurrency.Valid {
		v := row.PreferredCurrency.String
		p.PreferredCurrency = &v
	}
	if row.Theme.Valid {
		v := row.Theme.String
		p.Theme = &v
	}
	if row.CreatedAt.Valid {
		p.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		p.UpdatedAt = row.UpdatedAt.Time
	}
	return p
}

func badRequest(message string) *common.AppError {
	return &common.AppError{Code: "VALIDATION_ERROR", Message: message, HTTPStatus: http.StatusBadRequest}
}

func notFound() *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: "user not found", HTTPStatus: http.StatusNotFound}
}
