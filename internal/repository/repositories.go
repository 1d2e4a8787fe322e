package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	// ErrRecordNotFound is returned by writes that target a missing row.
	// Reads return nil, nil instead.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRevisionMismatch means the row changed since it was read.
	ErrRevisionMismatch = errors.New("revision mismatch")
	// ErrDuplicate wraps a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

type Repositories struct {
	// pgxpool
	LeadRepo  LeadRepository
	AgentRepo AgentRepository
	UserRepo  UserRepository

	// sqlx over database/sql
	RemarkRepo RemarkRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		LeadRepo:   NewLeadRepository(pool),
		AgentRepo:  NewAgentRepository(pool),
		UserRepo:   NewUserRepository(pool),
		RemarkRepo: NewRemarkRepository(db),
	}
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
