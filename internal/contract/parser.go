package contract

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"OptionsIntraday/internal/model"
)

// ParseStrikeSegment reads the trailing 8-digit strike of id back into a price.
func ParseStrikeSegment(id string) (decimal.Decimal, error) {
	if len(id) < strikeDigits {
		return decimal.Zero, errors.Wrapf(ErrInvalidContractSpec, "contract id %q too short", id)
	}
	seg := id[len(id)-strikeDigits:]
	if !allDigits(seg) {
		return decimal.Zero, errors.Wrapf(ErrInvalidContractSpec, "strike segment %q", seg)
	}
	n, err := decimal.NewFromString(seg)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidContractSpec, "strike segment %q", seg)
	}
	return n.Shift(-3), nil
}

// Parse is the inverse of Format. A leading vendor prefix is ignored.
func Parse(id string) (model.ContractSpec, error) {
	id = strings.TrimPrefix(id, VendorPrefix)
	if len(id) <= suffixLen {
		return model.ContractSpec{}, errors.Wrapf(ErrInvalidContractSpec, "contract id %q too short", id)
	}
	root := id[:len(id)-suffixLen]
	rest := id[len(id)-suffixLen:]

	ticker, err := normalizeTicker(root)
	if err != nil {
		return model.ContractSpec{}, err
	}
	dateSeg := rest[:len(dateLayout)]
	if !allDigits(dateSeg) {
		return model.ContractSpec{}, errors.Wrapf(ErrInvalidContractSpec, "expiry segment %q", dateSeg)
	}
	expiry, err := time.Parse(dateLayout, dateSeg)
	if err != nil {
		return model.ContractSpec{}, errors.Wrapf(ErrInvalidContractSpec, "expiry segment %q", dateSeg)
	}
	// two-digit years always mean 20YY here
	if expiry.Year() < 2000 {
		expiry = expiry.AddDate(100, 0, 0)
	}
	ot, err := ParseOptionType(rest[len(dateLayout) : len(dateLayout)+1])
	if err != nil {
		return model.ContractSpec{}, err
	}
	strike, err := ParseStrikeSegment(rest)
	if err != nil {
		return model.ContractSpec{}, err
	}
	return model.ContractSpec{Ticker: ticker, Expiry: expiry, OptionType: ot, Strike: strike}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
