package pgsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Code
	}{
		{"no rows", pgx.ErrNoRows, apperrors.CodeNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.CodeNotFound},
		{"unique", &pgconn.PgError{Code: pgUniqueViolation}, apperrors.CodeDuplicateCode},
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation}, apperrors.CodeReferencedEntity},
		{"check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "chk_fx_rates_interval"}, apperrors.CodeValidation},
		{"serialization", &pgconn.PgError{Code: pgSerializationFailure}, apperrors.CodeUnavailable},
		{"deadlock", &pgconn.PgError{Code: pgDeadlockDetected}, apperrors.CodeUnavailable},
		{"lock timeout", &pgconn.PgError{Code: pgLockNotAvailable}, apperrors.CodeUnavailable},
		{"other", errors.New("connection reset"), apperrors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.CodeOf(mapError(tt.err, "thing")))
		})
	}

	assert.NoError(t, mapError(nil, "thing"))
	assert.True(t, apperrors.IsTransient(mapError(&pgconn.PgError{Code: pgSerializationFailure}, "journal")))

	appErr := apperrors.New(apperrors.CodeImmutableJournal, "posted")
	assert.Same(t, appErr, mapError(appErr, "journal"), "application errors pass through")
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "acct_1", *nullIfEmpty("acct_1"))
	assert.Equal(t, "", derefString(nil))
}
