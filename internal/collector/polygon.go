package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"OptionsIntraday/internal/config"
	"OptionsIntraday/internal/contract"
	"OptionsIntraday/internal/logger"
	"OptionsIntraday/internal/model"
)

const (
	dayLayout    = "2006-01-02"
	maxErrorBody = 512
)

// PolygonFetcher implements Fetcher using the Polygon aggregates REST API.
type PolygonFetcher struct {
	BaseURL  string
	APIKey   string
	Limit    int
	MaxPages int
	Location *time.Location
	Client   *http.Client
}

// NewPolygonFetcher creates a fetcher from validated config, with optional proxy support.
func NewPolygonFetcher(cfg *config.Config) (*PolygonFetcher, error) {
	if cfg.Polygon.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.Wrapf(config.ErrInvalidConfig, "display.timezone: %v", err)
	}
	proxy, err := cfg.ProxyURL()
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &PolygonFetcher{
		BaseURL:  cfg.Polygon.BaseURL,
		APIKey:   cfg.Polygon.APIKey,
		Limit:    cfg.Polygon.Limit,
		MaxPages: cfg.Polygon.MaxPages,
		Location: loc,
		Client: &http.Client{
			Timeout:   cfg.Polygon.Timeout,
			Transport: transport,
		},
	}, nil
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// aggsResponse is the JSON shape of /v2/aggs/ticker/{ticker}/range/...
type aggsResponse struct {
	Ticker       string   `json:"ticker"`
	Status       string   `json:"status"`
	ResultsCount int      `json:"resultsCount"`
	Results      []aggBar `json:"results"`
	NextURL      string   `json:"next_url"`
	RequestID    string   `json:"request_id"`
	Error        string   `json:"error"`
}

type aggBar struct {
	T *int64  `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// FetchBars returns the bars for q in ascending time order, following
// pagination up to MaxPages.
func (f *PolygonFetcher) FetchBars(ctx context.Context, q model.BarQuery) ([]model.Bar, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	endpoint := f.rangeURL(q)
	bars := make([]model.Bar, 0)
	for page := 1; endpoint != ""; page++ {
		if page > f.maxPages() {
			logger.Warnf("[%s] stopped after %d pages, range truncated", q.ContractID, f.maxPages())
			break
		}
		resp, err := f.fetchPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		logger.Debugf("[%s] page %d: status=%s results=%d request_id=%s", q.ContractID, page, resp.Status, resp.ResultsCount, resp.RequestID)
		if resp.ResultsCount == 0 || len(resp.Results) == 0 {
			break
		}
		for i, ab := range resp.Results {
			if ab.T == nil {
				return nil, errors.Wrapf(ErrMalformedResponse, "result %d on page %d has no timestamp", i, page)
			}
			bars = append(bars, model.Bar{
				Time:   time.UnixMilli(*ab.T).In(f.location()),
				Open:   ab.O,
				High:   ab.H,
				Low:    ab.L,
				Close:  ab.C,
				Volume: int64(math.Round(ab.V)),
			})
		}
		endpoint = f.withKey(resp.NextURL)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *PolygonFetcher) fetchPage(ctx context.Context, endpoint string) (*aggsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+f.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: redactErr(err, f.APIKey)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Err: errors.Wrap(err, "read body")}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var out aggsResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrapf(ErrMalformedResponse, "decode: %v", err)
	}
	if out.Status == "ERROR" {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: out.Error}
	}
	return &out, nil
}

func (f *PolygonFetcher) rangeURL(q model.BarQuery) string {
	path := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		f.BaseURL,
		url.PathEscape(contract.VendorSymbol(q.ContractID)),
		q.Multiplier, q.Timespan,
		q.From.Format(dayLayout), q.To.Format(dayLayout))

	v := url.Values{}
	v.Set("adjusted", "true")
	v.Set("sort", "asc")
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	v.Set("apiKey", f.APIKey)
	return path + "?" + v.Encode()
}

// withKey re-attaches the API key to a next_url cursor link.
func (f *PolygonFetcher) withKey(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		logger.Warnf("ignoring unparsable next_url: %v", err)
		return ""
	}
	v := u.Query()
	v.Set("apiKey", f.APIKey)
	u.RawQuery = v.Encode()
	return u.String()
}

func (f *PolygonFetcher) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

func (f *PolygonFetcher) maxPages() int {
	if f.MaxPages <= 0 {
		return 1
	}
	return f.MaxPages
}

// redactErr strips the API key from transport errors, which embed the request URL.
func redactErr(err error, key string) error {
	var ue *url.Error
	if key == "" || !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return err
	}
	v := u.Query()
	if v.Has("apiKey") {
		v.Set("apiKey", "REDACTED")
		u.RawQuery = v.Encode()
	}
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
