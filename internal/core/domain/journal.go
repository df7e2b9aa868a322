package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
)

// MinJournalLines is the fewest lines a journal may carry.
const MinJournalLines = 2

// Journal is a multi-line accounting entry. Once Posted it is immutable; a
// correction is a new reversing journal.
type Journal struct {
	JournalID         string          `json:"journalID"`
	TenantID          string          `json:"tenantID"`
	CompanyID         string          `json:"companyID"`
	JournalNumber     int64           `json:"journalNumber"` // assigned at post; 0 while draft
	JournalDate       time.Time       `json:"journalDate"`
	Description       string          `json:"description,omitempty"`
	Reference         string          `json:"reference,omitempty"`
	CurrencyCode      string          `json:"currencyCode"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"` // journal currency -> company base currency
	TotalDebit        decimal.Decimal `json:"totalDebit"`
	TotalCredit       decimal.Decimal `json:"totalCredit"`
	Status            JournalStatus   `json:"status"`
	OriginalJournalID string          `json:"originalJournalID,omitempty"` // set on reversals
	PostedAt          *time.Time      `json:"postedAt,omitempty"`
	PostedBy          string          `json:"postedBy,omitempty"`
	Lines             []JournalLine   `json:"lines,omitempty"`
	AuditFields
}

// IsPosted reports whether the journal can no longer change.
func (j *Journal) IsPosted() bool {
	return j.Status == Posted
}

// JournalLine is one debit or credit of a journal. Exactly one of Debit and
// Credit is positive.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	JournalID   string          `json:"journalID"`
	LineNo      int             `json:"lineNo"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// ValidateAmounts enforces the one-sided amount rule and the currency scale.
func (l JournalLine) ValidateAmounts(currencyCode string) error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return apperrors.Newf(apperrors.CodeInvalidLine, "line %d: amounts must not be negative", l.LineNo)
	}
	debit := l.Debit.IsPositive()
	credit := l.Credit.IsPositive()
	if debit == credit {
		return apperrors.Newf(apperrors.CodeInvalidLine, "line %d: exactly one of debit or credit must be positive", l.LineNo)
	}
	if !FitsScale(l.Debit, currencyCode) || !FitsScale(l.Credit, currencyCode) {
		return apperrors.Newf(apperrors.CodeInvalidLine, "line %d: amount exceeds %d decimals allowed for %s",
			l.LineNo, CurrencyScale(currencyCode), currencyCode)
	}
	return nil
}

// SumLines returns the debit and credit totals of lines.
func SumLines(lines []JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// CheckBalance fails with UnbalancedJournal unless debits equal credits. The
// amounts are already quantized to the currency scale so the comparison is exact.
func CheckBalance(lines []JournalLine) error {
	debit, credit := SumLines(lines)
	if len(lines) < MinJournalLines {
		return apperrors.Newf(apperrors.CodeUnbalancedJournal, "journal needs at least %d lines, has %d", MinJournalLines, len(lines))
	}
	if !debit.Equal(credit) {
		return apperrors.Newf(apperrors.CodeUnbalancedJournal, "debits %s do not equal credits %s", debit.String(), credit.String())
	}
	return nil
}

// ReversalLines mirrors lines with debits and credits swapped.
func ReversalLines(lines []JournalLine) []JournalLine {
	out := make([]JournalLine, len(lines))
	for i, l := range lines {
		out[i] = JournalLine{
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		}
	}
	return out
}
