package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// Constraint names created by the migrations.
const (
	accountNumberConstraint  = "accounts_account_number_key"
	accountBalanceConstraint = "account_balances_pkey"
	transferIDConstraint     = "transfers_pkey"
)

// isPgUniqueViolation reports whether err is a unique violation on the named constraint.
// An empty constraint matches any unique violation.
func isPgUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
