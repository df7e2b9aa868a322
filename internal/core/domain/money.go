package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// IsCurrencyCode reports whether code looks like an ISO-4217 alphabetic code.
func IsCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// minor units for currencies that do not use two decimals
var currencyScales = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
	"CLF": 4, "UYW": 4,
}

// CurrencyScale returns the number of decimal places amounts in code may carry.
func CurrencyScale(code string) int32 {
	if s, ok := currencyScales[code]; ok {
		return s
	}
	return 2
}

// FitsScale reports whether amount has no more decimals than the currency allows.
func FitsScale(amount decimal.Decimal, code string) bool {
	scale := CurrencyScale(code)
	return amount.Equal(amount.Truncate(scale))
}
