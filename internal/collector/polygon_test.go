package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OptionsIntraday/internal/config"
	"OptionsIntraday/internal/model"
)

func newTestFetcher(t *testing.T, srv *httptest.Server) *PolygonFetcher {
	t.Helper()
	cfg := &config.Config{}
	cfg.Polygon.BaseURL = srv.URL
	cfg.Polygon.APIKey = "secret"
	cfg.Polygon.Timeout = 2 * time.Second
	cfg.Polygon.Limit = 5000
	cfg.Polygon.MaxPages = 3
	cfg.Display.Timezone = "America/New_York"
	f, err := NewPolygonFetcher(cfg)
	require.NoError(t, err)
	return f
}

func testQuery() model.BarQuery {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return model.BarQuery{
		ContractID: "NVDA240315C00850000",
		Multiplier: 1,
		Timespan:   model.Minute,
		From:       day,
		To:         day,
	}
}

func TestNewPolygonFetcher_MissingKey(t *testing.T) {
	_, err := NewPolygonFetcher(&config.Config{})
	assert.True(t, errors.Is(err, config.ErrMissingAPIKey))
}

func TestNewPolygonFetcher_BadProxy(t *testing.T) {
	cfg := &config.Config{}
	cfg.Polygon.APIKey = "secret"
	cfg.Display.Timezone = "UTC"
	cfg.Proxy = "proxy.local:3128"
	_, err := NewPolygonFetcher(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestFetchBars_RequestShape(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotSort string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.URL.Query().Get("apiKey")
		gotSort = r.URL.Query().Get("sort")
		fmt.Fprint(w, `{"status":"OK","resultsCount":0}`)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, "/v2/aggs/ticker/O:NVDA240315C00850000/range/1/minute/2024-03-15/2024-03-15", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "asc", gotSort)
}

func TestFetchBars_ParsesAndLocalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// deliberately out of order
		fmt.Fprint(w, `{"status":"OK","resultsCount":2,"results":[
			{"t":1710509460000,"o":2.5,"h":2.9,"l":2.4,"c":2.8,"v":12},
			{"t":1710509400000,"o":2.0,"h":2.6,"l":1.9,"c":2.5,"v":30.4}
		]}`)
	}))
	defer srv.Close()

	bars, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "America/New_York", bars[0].Time.Location().String())
	assert.Equal(t, int64(1710509400), bars[0].Time.Unix())
	assert.Equal(t, 9, bars[0].Time.Hour())
	assert.Equal(t, 30, bars[0].Time.Minute())
	assert.Equal(t, 2.0, bars[0].Open)
	assert.Equal(t, int64(30), bars[0].Volume)
	assert.Equal(t, 2.8, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestFetchBars_NoResultsIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticker":"O:NVDA240315C00850000","status":"OK","queryCount":0,"resultsCount":0,"adjusted":true}`)
	}))
	defer srv.Close()

	bars, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	require.NoError(t, err)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestFetchBars_Non2xxIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"ERROR","error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	bars, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	require.Error(t, err)
	assert.Nil(t, bars)
	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
}

func TestFetchBars_LongErrorBodyStaysValidUTF8(t *testing.T) {
	body := strings.Repeat("x", maxErrorBody-1) + "é, service indisponible"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.True(t, utf8.ValidString(ue.Body))
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Equal(t, strings.Repeat("x", maxErrorBody-1)+"...", ue.Body)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"ab日本", 4, "ab..."},
		{"ab日本", 5, "ab日..."},
		{"日本", 1, "..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, "truncate(%q, %d)", tt.in, tt.n)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestFetchBars_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"ERROR","error":"Unknown API Key"}`)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
}

func TestFetchBars_ErrorStatusInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ERROR","error":"upstream hiccup"}`)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
}

func TestFetchBars_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     `<html>maintenance</html>`,
		"wrong shape":  `{"resultsCount":"many"}`,
		"no timestamp": `{"status":"OK","resultsCount":1,"results":[{"o":1,"h":1,"l":1,"c":1,"v":1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
			assert.False(t, errors.Is(err, ErrUpstreamUnavailable))
		})
	}
}

func TestFetchBars_TransportFailureRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	f := newTestFetcher(t, srv)
	srv.Close()

	_, err := f.FetchBars(context.Background(), testQuery())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
	assert.NotContains(t, err.Error(), "secret")
}

func TestFetchBars_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := newTestFetcher(t, srv)
	f.Client.Timeout = 50 * time.Millisecond

	_, err := f.FetchBars(context.Background(), testQuery())
	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
}

func TestFetchBars_FollowsPagination(t *testing.T) {
	var hits int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprintf(w, `{"status":"OK","resultsCount":1,"results":[{"t":1710513000000,"o":1,"h":2,"l":0.5,"c":1.5,"v":1}],"next_url":"%s/v2/aggs/next?cursor=abc"}`, srv.URL)
			return
		}
		assert.Equal(t, int32(2), n)
		fmt.Fprint(w, `{"status":"OK","resultsCount":1,"results":[{"t":1710513060000,"o":1.5,"h":2,"l":1,"c":1.2,"v":2}]}`)
	}))
	defer srv.Close()

	bars, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchBars_PaginationCapped(t *testing.T) {
	var hits int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		fmt.Fprintf(w, `{"status":"OK","resultsCount":1,"results":[{"t":%d,"o":1,"h":1,"l":1,"c":1,"v":1}],"next_url":"%s/v2/aggs/next?cursor=%d"}`,
			1710513000000+int64(n)*60000, srv.URL, n)
	}))
	defer srv.Close()

	bars, err := newTestFetcher(t, srv).FetchBars(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetchBars_InvalidQueryMakesNoCall(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()
	f := newTestFetcher(t, srv)

	q := testQuery()
	q.Timespan = "fortnight"
	_, err := f.FetchBars(context.Background(), q)
	assert.True(t, errors.Is(err, ErrInvalidQuery))

	q = testQuery()
	q.From = q.To.AddDate(0, 0, 1)
	_, err = f.FetchBars(context.Background(), q)
	assert.True(t, errors.Is(err, ErrInvalidQuery))

	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestUpstreamError_Message(t *testing.T) {
	err := &UpstreamError{StatusCode: 503, Body: "down"}
	assert.True(t, strings.Contains(err.Error(), "503"))
}
