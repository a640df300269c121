package collector

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"OptionsIntraday/internal/model"
)

var (
	// ErrUpstreamUnavailable covers non-2xx responses, transport failures and timeouts.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUnauthorized is an upstream rejection of the configured API key.
	ErrUnauthorized = errors.New("upstream rejected api key")
	// ErrMalformedResponse is a 2xx response whose body does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrInvalidQuery is returned before any network call for an unusable BarQuery.
	ErrInvalidQuery = errors.New("invalid bar query")
)

// Fetcher defines the interface for fetching option bars.
//
// An empty slice with a nil error means the upstream had no bars for the range.
type Fetcher interface {
	FetchBars(ctx context.Context, q model.BarQuery) ([]model.Bar, error)
	Name() string
}

// UpstreamError carries the HTTP status (zero for transport failures) of a
// failed upstream call. It matches ErrUpstreamUnavailable, and ErrUnauthorized
// for 401/403.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamUnavailable:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

func validateQuery(q model.BarQuery) error {
	if q.ContractID == "" {
		return errors.Wrap(ErrInvalidQuery, "contract id is required")
	}
	if q.Multiplier <= 0 {
		return errors.Wrapf(ErrInvalidQuery, "multiplier %d must be positive", q.Multiplier)
	}
	if !q.Timespan.Valid() {
		return errors.Wrapf(ErrInvalidQuery, "timespan %q", q.Timespan)
	}
	if q.From.IsZero() || q.To.IsZero() {
		return errors.Wrap(ErrInvalidQuery, "from and to dates are required")
	}
	if q.To.Before(q.From) {
		return errors.Wrapf(ErrInvalidQuery, "to %s before from %s", q.To.Format(dayLayout), q.From.Format(dayLayout))
	}
	return nil
}
