package dashboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"OptionsIntraday/internal/contract"
	"OptionsIntraday/internal/model"
)

// ErrInvalidRequest marks request fields that fail validation before any fetch.
var ErrInvalidRequest = errors.New("invalid request")

const dateLayout = "2006-01-02"

// Request is one dashboard interaction: the current value of every widget.
type Request struct {
	Ticker     string
	Expiry     time.Time
	OptionType string
	Strike     float64
	Interval   int
	Unit       model.Timespan
	Start      time.Time
	End        time.Time
}

// RawRequest is the string form of a Request as it arrives from a query string.
// Empty fields fall back to defaults.
type RawRequest struct {
	Ticker     string `form:"ticker" json:"ticker"`
	Expiry     string `form:"expiry" json:"expiry"`
	OptionType string `form:"type" json:"type"`
	Strike     string `form:"strike" json:"strike"`
	Interval   string `form:"interval" json:"interval"`
	Unit       string `form:"unit" json:"unit"`
	Start      string `form:"start" json:"start"`
	End        string `form:"end" json:"end"`
}

// Validate checks the non-contract fields. Contract fields are checked by
// contract.Format.
func (r Request) Validate() error {
	if r.Interval <= 0 {
		return errors.Wrapf(ErrInvalidRequest, "interval %d must be positive", r.Interval)
	}
	if !r.Unit.Valid() {
		return errors.Wrapf(ErrInvalidRequest, "unit %q", r.Unit)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.Wrap(ErrInvalidRequest, "start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return errors.Wrapf(ErrInvalidRequest, "end %s before start %s", r.End.Format(dateLayout), r.Start.Format(dateLayout))
	}
	return nil
}

// Query builds the upstream bar query for contract id.
func (r Request) Query(id string) model.BarQuery {
	return model.BarQuery{
		ContractID: id,
		Multiplier: r.Interval,
		Timespan:   r.Unit,
		From:       r.Start,
		To:         r.End,
	}
}

// ParseRequest converts raw form values, taking unset fields from def.
func ParseRequest(raw RawRequest, def Request) (Request, error) {
	req := def
	if v := strings.TrimSpace(raw.Ticker); v != "" {
		req.Ticker = v
	}
	if v := strings.TrimSpace(raw.OptionType); v != "" {
		req.OptionType = v
	}
	if v := strings.TrimSpace(raw.Unit); v != "" {
		req.Unit = model.Timespan(strings.ToLower(v))
	}
	if v := strings.TrimSpace(raw.Expiry); v != "" {
		t, err := contract.ParseExpiry(v)
		if err != nil {
			return Request{}, err
		}
		req.Expiry = t
	}
	if v := strings.TrimSpace(raw.Strike); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Request{}, errors.Wrapf(contract.ErrInvalidContractSpec, "strike %q", v)
		}
		req.Strike = f
	}
	if v := strings.TrimSpace(raw.Interval); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, errors.Wrapf(ErrInvalidRequest, "interval %q", v)
		}
		req.Interval = n
	}
	var err error
	if req.Start, err = parseDate("start", raw.Start, req.Start); err != nil {
		return Request{}, err
	}
	if req.End, err = parseDate("end", raw.End, req.End); err != nil {
		return Request{}, err
	}
	return req, nil
}

func parseDate(field, raw string, def time.Time) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidRequest, "%s %q: want YYYY-MM-DD", field, v)
	}
	return t, nil
}
