package repository

import (
	"errors"

	"go-pos-ledger/internal/ledger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the ledger cares about.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
)

// ErrNotFound is returned by Find* methods for missing rows. It is the
// ledger's sentinel so the coordinator can tell a miss from a failed lookup.
var ErrNotFound = ledger.ErrNotFound

// classify maps driver errors onto ledger sentinels. Unknown errors are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgCheckViolation:
		return errors.Join(ledger.ErrConflict, err)
	case pgUniqueViolation:
		return errors.Join(ledger.ErrReferenceUsed, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
