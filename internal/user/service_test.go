package user

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
)

type fakeUserQueries struct {
	users map[string]db.User
}

func newFakeUserQueries() *fakeUserQueries {
	return &fakeUserQueries{users: map[string]db.User{}}
}

func (f *fakeUserQueries) addUser(t *testing.T, name, email, password string) db.User {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	id, err := db.UUID(uuid.NewString())
	require.NoError(t, err)
	u := db.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         "CUSTOMER",
	}
	f.users[db.UUIDString(id)] = u
	return u
}

func (f *fakeUserQueries) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	u, ok := f.users[db.UUIDString(id)]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserQueries) UpdateUserProfile(_ context.Context, arg db.UpdateUserProfileParams) (db.User, error) {
	u, ok := f.users[db.UUIDString(arg.ID)]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	u.Name = arg.Name
	u.Email = arg.Email
	u.Phone = arg.Phone
	u.PreferredLanguage = arg.PreferredLanguage
	u.PreferredCurrency = arg.PreferredCurrency
	u.Theme = arg.Theme
	f.users[db.UUIDString(arg.ID)] = u
	return u, nil
}

func (f *fakeUserQueries) UpdateUserPassword(_ context.Context, arg db.UpdateUserPasswordParams) error {
	u, ok := f.users[db.UUIDString(arg.ID)]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = arg.PasswordHash
	f.users[db.UUIDString(arg.ID)] = u
	return nil
}

func TestGetProfileAuthorization(t *testing.T) {
	q := newFakeUserQueries()
	svc := NewService(ServiceConfig{Queries: q})
	owner := q.addUser(t, "Ava Laurent", "ava@example.com", "s3cret-passphrase")
	ownerID := db.UUIDString(owner.ID)

	profile, err := svc.Get(context.Background(), Principal{UserID: ownerID}, ownerID)
	require.NoError(t, err)
	require.Equal(t, "ava@example.com", profile.Email)
	require.Equal(t, "CUSTOMER", profile.Role)

	_, err = svc.Get(context.Background(), Principal{UserID: uuid.NewString()}, ownerID)
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.Get(context.Background(), Principal{UserID: uuid.NewString(), Admin: true}, ownerID)
	require.NoError(t, err)
}

func TestUpdateProfileFields(t *testing.T) {
	q := newFakeUserQueries()
	svc := NewService(ServiceConfig{Queries: q})
	owner := q.addUser(t, "Ava Laurent", "ava@example.com", "s3cret-passphrase")
	ownerID := db.UUIDString(owner.ID)

	phone := "+12025550199"
	theme := "dark"
	profile, err := svc.Update(context.Background(), Principal{UserID: ownerID}, ownerID, UpdateInput{
		Phone: &phone,
		Theme: &theme,
	})
	require.NoError(t, err)
	require.NotNil(t, profile.Phone)
	require.Equal(t, phone, *profile.Phone)
	require.NotNil(t, profile.Theme)
	require.Equal(t, "dark", *profile.Theme)
	// untouched fields survive
	require.Equal(t, "Ava Laurent", profile.Name)
}

func TestChangePassword(t *testing.T) {
	q := newFakeUserQueries()
	svc := NewService(ServiceConfig{Queries: q})
	owner := q.addUser(t, "Ava Laurent", "ava@example.com", "old-passphrase")
	ownerID := db.UUIDString(owner.ID)

	current := "old-passphrase"
	next := "new-passphrase"
	_, err := svc.Update(context.Background(), Principal{UserID: ownerID}, ownerID, UpdateInput{
		CurrentPassword: &current,
		NewPassword:     &next,
	})
	require.NoError(t, err)

	match, err := argon2id.ComparePasswordAndHash(next, q.users[ownerID].PasswordHash)
	require.NoError(t, err)
	require.True(t, match)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	q := newFakeUserQueries()
	svc := NewService(ServiceConfig{Queries: q})
	owner := q.addUser(t, "Ava Laurent", "ava@example.com", "old-passphrase")
	ownerID := db.UUIDString(owner.ID)

	wrong := "guessed-wrong"
	next := "new-passphrase"
	_, err := svc.Update(context.Background(), Principal{UserID: ownerID}, ownerID, UpdateInput{
		CurrentPassword: &wrong,
		NewPassword:     &next,
	})
	requireStatus(t, err, http.StatusBadRequest)

	match, err := argon2id.ComparePasswordAndHash("old-passphrase", q.users[ownerID].PasswordHash)
	require.NoError(t, err)
	require.True(t, match)
}

func TestChangePasswordRequiresBothFields(t *testing.T) {
	q := newFakeUserQueries()
	svc := NewService(ServiceConfig{Queries: q})
	owner := q.addUser(t, "Ava Laurent", "ava@example.com", "old-passphrase")
	ownerID := db.UUIDString(owner.ID)

	next := "new-passphrase"
	_, err := svc.Update(context.Background(), Principal{UserID: ownerID}, ownerID, UpdateInput{NewPassword: &next})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUpdateUnknownUser(t *testing.T) {
	svc := NewService(ServiceConfig{Queries: newFakeUserQueries()})

	_, err := svc.Get(context.Background(), Principal{Admin: true}, uuid.NewString())
	requireStatus(t, err, http.StatusNotFound)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, status, appErr.HTTPStatus)
}
