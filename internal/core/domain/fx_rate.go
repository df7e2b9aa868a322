package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FxRate is the conversion from one unit of BaseCurrency into QuoteCurrency,
// valid over the half-open interval [ValidFrom, ValidTo). A nil ValidTo
// means the rate is open-ended.
type FxRate struct {
	RateID        string          `json:"rateID"`
	TenantID      string          `json:"tenantID"`
	BaseCurrency  string          `json:"baseCurrency"`
	QuoteCurrency string          `json:"quoteCurrency"`
	Rate          decimal.Decimal `json:"rate"`
	ValidFrom     time.Time       `json:"validFrom"`
	ValidTo       *time.Time      `json:"validTo,omitempty"`
	Source        string          `json:"source,omitempty"`
	AuditFields
}

// Contains reports whether at falls inside the validity interval.
func (r FxRate) Contains(at time.Time) bool {
	if at.Before(r.ValidFrom) {
		return false
	}
	return r.ValidTo == nil || at.Before(*r.ValidTo)
}

// Overlaps reports whether the interval [from, to) intersects this rate's
// interval. A nil bound is +infinity.
func (r FxRate) Overlaps(from time.Time, to *time.Time) bool {
	// a.from < b.to && b.from < a.to
	startsBeforeOtherEnds := to == nil || r.ValidFrom.Before(*to)
	otherStartsBeforeEnd := r.ValidTo == nil || from.Before(*r.ValidTo)
	return startsBeforeOtherEnds && otherStartsBeforeEnd
}

// IdentityRate is returned for same-currency lookups.
func IdentityRate(tenantID, currency string, at time.Time) FxRate {
	return FxRate{
		TenantID:      tenantID,
		BaseCurrency:  currency,
		QuoteCurrency: currency,
		Rate:          decimal.NewFromInt(1),
		ValidFrom:     at,
		Source:        "identity",
	}
}
