package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

func line(no int, debit, credit string) domain.JournalLine {
	return domain.JournalLine{
		LineNo:    no,
		AccountID: "acct_x",
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
	}
}

func TestJournalLine_ValidateAmounts(t *testing.T) {
	tests := []struct {
		name     string
		line     domain.JournalLine
		currency string
		wantErr  bool
	}{
		{name: "debit only", line: line(1, "100", "0"), currency: "USD"},
		{name: "credit only", line: line(1, "0", "99.99"), currency: "USD"},
		{name: "both zero", line: line(1, "0", "0"), currency: "USD", wantErr: true},
		{name: "both positive", line: line(1, "1", "1"), currency: "USD", wantErr: true},
		{name: "negative debit", line: line(1, "-5", "0"), currency: "USD", wantErr: true},
		{name: "too many decimals for USD", line: line(1, "1.005", "0"), currency: "USD", wantErr: true},
		{name: "three decimals for KWD", line: line(1, "1.005", "0"), currency: "KWD"},
		{name: "fraction for JPY", line: line(1, "0", "10.5"), currency: "JPY", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.ValidateAmounts(tt.currency)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrInvalidLine), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckBalance(t *testing.T) {
	balanced := []domain.JournalLine{line(1, "100", "0"), line(2, "0", "60"), line(3, "0", "40")}
	assert.NoError(t, domain.CheckBalance(balanced))

	unbalanced := []domain.JournalLine{line(1, "100", "0"), line(2, "0", "90")}
	err := domain.CheckBalance(unbalanced)
	assert.True(t, errors.Is(err, apperrors.ErrUnbalancedJournal))
	assert.Contains(t, err.Error(), "100")

	err = domain.CheckBalance([]domain.JournalLine{line(1, "0", "0")})
	assert.True(t, errors.Is(err, apperrors.ErrUnbalancedJournal))
}

func TestSumLines_ExactDecimal(t *testing.T) {
	lines := []domain.JournalLine{line(1, "0.1", "0"), line(2, "0.2", "0"), line(3, "0", "0.3")}
	debit, credit := domain.SumLines(lines)
	assert.True(t, debit.Equal(credit))
}

func TestReversalLines(t *testing.T) {
	rev := domain.ReversalLines([]domain.JournalLine{line(1, "100", "0"), line(2, "0", "100")})
	assert.True(t, rev[0].Credit.Equal(decimal.NewFromInt(100)))
	assert.True(t, rev[0].Debit.IsZero())
	assert.True(t, rev[1].Debit.Equal(decimal.NewFromInt(100)))
}

func TestCurrencyScale(t *testing.T) {
	assert.Equal(t, int32(0), domain.CurrencyScale("JPY"))
	assert.Equal(t, int32(3), domain.CurrencyScale("KWD"))
	assert.Equal(t, int32(4), domain.CurrencyScale("CLF"))
	assert.Equal(t, int32(2), domain.CurrencyScale("EUR"))
	assert.True(t, domain.IsCurrencyCode("EUR"))
	assert.False(t, domain.IsCurrencyCode("eur"))
	assert.False(t, domain.IsCurrencyCode("EURO"))
}
