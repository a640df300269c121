package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType is the right carried by an option contract.
type OptionType string

const (
	Call OptionType = "C"
	Put  OptionType = "P"
)

// ContractSpec identifies a single listed option contract.
type ContractSpec struct {
	Ticker     string          `json:"ticker"`
	Expiry     time.Time       `json:"expiry"`
	OptionType OptionType      `json:"type"`
	Strike     decimal.Decimal `json:"strike"` // three implied decimal digits
}
