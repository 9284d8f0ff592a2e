package constants

import "github.com/shopspring/decimal"

// MaxAmount is the largest amount the store holds: NUMERIC(14,2) leaves twelve integer digits.
var MaxAmount = decimal.RequireFromString("999999999999.99")
