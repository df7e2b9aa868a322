package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddFxRateRequest defines the structure for adding a rate to a pair's timeline.
type AddFxRateRequest struct {
	IdempotencyKey string          `json:"-"`
	BaseCurrency   string          `json:"baseCurrency" binding:"required,len=3,uppercase"`
	QuoteCurrency  string          `json:"quoteCurrency" binding:"required,len=3,uppercase"`
	Rate           decimal.Decimal `json:"rate"`
	ValidFrom      time.Time       `json:"validFrom"`
	ValidTo        *time.Time      `json:"validTo,omitempty"` // nil means open-ended
	Source         string          `json:"source" binding:"max=100"`
}

// RateAtQuery defines the query parameters of a point-in-time lookup.
type RateAtQuery struct {
	Base  string    `form:"base" binding:"required,len=3,uppercase"`
	Quote string    `form:"quote" binding:"required,len=3,uppercase"`
	At    time.Time `form:"at" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListFxRatesQuery selects the pair to list.
type ListFxRatesQuery struct {
	Base  string `form:"base" binding:"required,len=3,uppercase"`
	Quote string `form:"quote" binding:"required,len=3,uppercase"`
}
