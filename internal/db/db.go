package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the minimal statement-execution contract satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles all SQL statements used by the application.
type Queries struct {
	db DBTX
}

// New constructs a Queries instance bound to the provided executor.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance that routes statements through the transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// UniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const UniqueViolation = "23505"

// IsUniqueViolation reports whether the error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}

// UUID parses a canonical UUID string into a pgtype.UUID.
func UUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// UUIDString renders a pgtype.UUID as its canonical string, empty when invalid.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// UUIDEqual reports whether two UUID values are both valid and identical.
func UUIDEqual(a, b pgtype.UUID) bool {
	if !a.Valid || !b.Valid {
		return false
	}
	return a.Bytes == b.Bytes
}

// Text wraps a string as a pgtype.Text, treating empty input as NULL.
func Text(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}

// TextString unwraps a pgtype.Text, returning empty for NULL.
func TextString(value pgtype.Text) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

// NumericDecimal converts a scanned NUMERIC into an exact decimal value.
func NumericDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Decimal{}
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// DecimalNumeric converts a decimal value into a NUMERIC parameter.
func DecimalNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

// NullableDecimal converts an optional NUMERIC column into a *decimal.Decimal.
func NullableDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}
