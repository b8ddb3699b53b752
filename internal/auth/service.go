package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
)

const defaultAccessTTL = 15 * time.Minute

// Querier is the subset of the query layer the auth service depends on.
type Querier interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (db.User, error)
}

// Service coordinates registration, login and access token verification.
type Service struct {
	queries   Querier
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        Querier
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// User represents a safe subset of the user model returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	AccessExpiry time.Time `json:"access_expires_at"`
}

// Principal identifies the authenticated caller extracted from a token.
type Principal struct {
	UserID string
	Role   string
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-scents"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "scents-storefront"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new user with the supplied credentials.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "name is required", httpStatusBadRequest, nil)
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "email is required", httpStatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", httpStatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		Name:         strings.TrimSpace(name),
		Email:        normalizedEmail,
		PasswordHash: hash,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", httpStatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return convertUser(created), nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", httpStatusUnauthorized, nil)
	}

	dbUser, err := s.queries.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", httpStatusUnauthorized, nil)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, dbUser.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", httpStatusUnauthorized, nil)
	}

	userID := db.UUIDString(dbUser.ID)
	if userID == "" {
		return LoginResult{}, errors.New("auth: invalid user identifier")
	}

	accessToken, accessExpiry, err := s.signAccessToken(userID, dbUser.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginResult{
		User:         convertUser(dbUser),
		AccessToken:  accessToken,
		AccessExpiry: accessExpiry,
	}, nil
}

// Me fetches the current authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", httpStatusUnauthorized, nil)
	}
	id, err := db.UUID(userID)
	if err != nil {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", httpStatusUnauthorized, nil)
	}
	dbUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", httpStatusUnauthorized, nil)
	}
	return convertUser(dbUser), nil
}

// ParseAccessToken validates an access token and returns the caller principal.
func (s *Service) ParseAccessToken(token string) (Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "missing token", httpStatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	principal := Principal{UserID: parsed.Subject()}
	if role, ok := parsed.Get("role"); ok {
		if s, ok := role.(string); ok {
			principal.Role = s
		}
	}
	return principal, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(userID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim("role", role)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func convertUser(u db.User) User {
	return User{
		ID:        db.UUIDString(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: toTime(u.CreatedAt),
		UpdatedAt: toTime(u.UpdatedAt),
	}
}

func toTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

const httpStatusBadRequest = 400
const httpStatusUnauthorized = 401
const httpStatusConflict = 409
