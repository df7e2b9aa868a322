package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// JournalLineInput is one requested line. Exactly one of Debit or Credit
// must be positive.
type JournalLineInput struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" binding:"max=255"`
}

// CreateJournalRequest defines the data needed to create a draft journal.
type CreateJournalRequest struct {
	IdempotencyKey string             `json:"-"`
	JournalDate    time.Time          `json:"journalDate"`
	Description    string             `json:"description" binding:"max=500"`
	Reference      string             `json:"reference" binding:"max=100"`
	CurrencyCode   string             `json:"currencyCode" binding:"required,len=3,uppercase"`
	ExchangeRate   *decimal.Decimal   `json:"exchangeRate,omitempty"` // optional; looked up from the FX timeline otherwise
	Lines          []JournalLineInput `json:"lines" binding:"dive"`
}

// UpdateJournalRequest amends a draft. Nil fields are left unchanged; a
// non-nil Lines replaces every line.
type UpdateJournalRequest struct {
	IdempotencyKey string             `json:"-"`
	JournalDate    *time.Time         `json:"journalDate,omitempty"`
	Description    *string            `json:"description,omitempty" binding:"omitempty,max=500"`
	Reference      *string            `json:"reference,omitempty" binding:"omitempty,max=100"`
	ExchangeRate   *decimal.Decimal   `json:"exchangeRate,omitempty"`
	Lines          []JournalLineInput `json:"lines,omitempty" binding:"omitempty,dive"`
}

// PostJournalRequest carries the optional idempotency key of a post.
type PostJournalRequest struct {
	IdempotencyKey string `json:"-"`
}

// DeleteJournalRequest carries the optional idempotency key of a delete.
type DeleteJournalRequest struct {
	IdempotencyKey string `json:"-"`
}

// ReverseJournalRequest creates a compensating draft for a posted journal.
type ReverseJournalRequest struct {
	IdempotencyKey string     `json:"-"`
	JournalDate    *time.Time `json:"journalDate,omitempty"` // defaults to the original date
	Description    string     `json:"description" binding:"max=500"`
}

// ListJournalsParams defines the query parameters for listing journals.
type ListJournalsParams struct {
	Status    domain.JournalStatus `form:"status" binding:"omitempty,oneof=DRAFT POSTED"`
	Limit     int                  `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string              `form:"nextToken"`
}

// ListJournalsResponse is a page of journals with the cursor for the next one.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	LineNo      int             `json:"lineNo"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	JournalID         string                `json:"journalID"`
	CompanyID         string                `json:"companyID"`
	JournalNumber     int64                 `json:"journalNumber,omitempty"`
	JournalDate       time.Time             `json:"journalDate"`
	Description       string                `json:"description,omitempty"`
	Reference         string                `json:"reference,omitempty"`
	CurrencyCode      string                `json:"currencyCode"`
	ExchangeRate      decimal.Decimal       `json:"exchangeRate"`
	TotalDebit        decimal.Decimal       `json:"totalDebit"`
	TotalCredit       decimal.Decimal       `json:"totalCredit"`
	Status            domain.JournalStatus  `json:"status"`
	OriginalJournalID string                `json:"originalJournalID,omitempty"`
	PostedAt          *time.Time            `json:"postedAt,omitempty"`
	PostedBy          string                `json:"postedBy,omitempty"`
	Lines             []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	CreatedBy         string                `json:"createdBy"`
}

// ToJournalResponse converts a domain.Journal to JournalResponse DTO.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	resp := JournalResponse{
		JournalID:         j.JournalID,
		CompanyID:         j.CompanyID,
		JournalNumber:     j.JournalNumber,
		JournalDate:       j.JournalDate,
		Description:       j.Description,
		Reference:         j.Reference,
		CurrencyCode:      j.CurrencyCode,
		ExchangeRate:      j.ExchangeRate,
		TotalDebit:        j.TotalDebit,
		TotalCredit:       j.TotalCredit,
		Status:            j.Status,
		OriginalJournalID: j.OriginalJournalID,
		PostedAt:          j.PostedAt,
		PostedBy:          j.PostedBy,
		CreatedAt:         j.CreatedAt,
		CreatedBy:         j.CreatedBy,
	}
	for _, l := range j.Lines {
		resp.Lines = append(resp.Lines, JournalLineResponse{
			LineID:      l.LineID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}
	return resp
}

// ToJournalResponses converts a slice of domain.Journal.
func ToJournalResponses(journals []domain.Journal) []JournalResponse {
	responses := make([]JournalResponse, len(journals))
	for i := range journals {
		responses[i] = ToJournalResponse(&journals[i])
	}
	return responses
}
