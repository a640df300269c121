// Package contract builds and parses vendor option contract identifiers of the
// form TICKER + YYMMDD + C|P + 8-digit strike in thousandths.
package contract

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"OptionsIntraday/internal/model"
)

// ErrInvalidContractSpec is returned for inputs that cannot name a contract.
var ErrInvalidContractSpec = errors.New("invalid contract spec")

const (
	// VendorPrefix marks option symbols in the aggregates endpoint path.
	VendorPrefix = "O:"

	dateLayout   = "060102"
	expiryLayout = "2006-01-02"
	strikeDigits = 8
	suffixLen    = len(dateLayout) + 1 + strikeDigits
)

var (
	tickerRe    = regexp.MustCompile(`^[A-Z0-9]{1,6}$`)
	strikeScale = decimal.New(1, 3)
	strikeLimit = decimal.New(1, strikeDigits) // exclusive, in thousandths
)

// Format derives the contract identifier for spec.
func Format(spec model.ContractSpec) (string, error) {
	ticker, err := normalizeTicker(spec.Ticker)
	if err != nil {
		return "", err
	}
	if y := spec.Expiry.Year(); y < 2000 || y > 2099 {
		return "", errors.Wrapf(ErrInvalidContractSpec, "expiry year %d outside 2000-2099", y)
	}
	ot, err := ParseOptionType(string(spec.OptionType))
	if err != nil {
		return "", err
	}
	if spec.Strike.IsNegative() {
		return "", errors.Wrapf(ErrInvalidContractSpec, "negative strike %s", spec.Strike)
	}
	thousandths := spec.Strike.Mul(strikeScale).Truncate(0)
	if thousandths.GreaterThanOrEqual(strikeLimit) {
		return "", errors.Wrapf(ErrInvalidContractSpec, "strike %s exceeds %d digits", spec.Strike, strikeDigits)
	}

	return fmt.Sprintf("%s%s%s%0*d", ticker, spec.Expiry.Format(dateLayout), ot, strikeDigits, thousandths.IntPart()), nil
}

// FormatParts is Format for raw dashboard inputs.
func FormatParts(ticker string, expiry time.Time, optionType string, strike float64) (string, error) {
	spec, err := NewSpec(ticker, expiry, optionType, strike)
	if err != nil {
		return "", err
	}
	return Format(spec)
}

// NewSpec validates raw inputs into a ContractSpec.
func NewSpec(ticker string, expiry time.Time, optionType string, strike float64) (model.ContractSpec, error) {
	t, err := normalizeTicker(ticker)
	if err != nil {
		return model.ContractSpec{}, err
	}
	ot, err := ParseOptionType(optionType)
	if err != nil {
		return model.ContractSpec{}, err
	}
	if math.IsNaN(strike) || math.IsInf(strike, 0) {
		return model.ContractSpec{}, errors.Wrapf(ErrInvalidContractSpec, "strike %v", strike)
	}
	return model.ContractSpec{
		Ticker:     t,
		Expiry:     expiry,
		OptionType: ot,
		Strike:     decimal.NewFromFloat(strike),
	}, nil
}

// ParseOptionType normalises C/P (any case) and the words call/put.
func ParseOptionType(s string) (model.OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CALL":
		return model.Call, nil
	case "P", "PUT":
		return model.Put, nil
	}
	return "", errors.Wrapf(ErrInvalidContractSpec, "option type %q", s)
}

// ParseExpiry parses an ISO YYYY-MM-DD expiry date. No other layout is accepted.
func ParseExpiry(s string) (time.Time, error) {
	t, err := time.Parse(expiryLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidContractSpec, "expiry %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// VendorSymbol prefixes id the way the aggregates endpoint expects.
func VendorSymbol(id string) string {
	if strings.HasPrefix(id, VendorPrefix) {
		return id
	}
	return VendorPrefix + id
}

func normalizeTicker(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if !tickerRe.MatchString(t) {
		return "", errors.Wrapf(ErrInvalidContractSpec, "ticker %q", s)
	}
	return t, nil
}
