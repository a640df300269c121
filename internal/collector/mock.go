package collector

import (
	"context"
	"sync"
	"time"

	"OptionsIntraday/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars []model.Bar
	Err  error

	mu      sync.Mutex
	calls   int
	lastQry model.BarQuery
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, q model.BarQuery) ([]model.Bar, error) {
	m.mu.Lock()
	m.calls++
	m.lastQry = q
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	out := make([]model.Bar, len(m.Bars))
	copy(out, m.Bars)
	return out, nil
}

// Calls reports how many times FetchBars ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastQuery returns the most recent query seen.
func (m *MockFetcher) LastQuery() model.BarQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQry
}

// GenerateBars builds count bars spaced step apart starting at start,
// alternating up and down candles around basePrice.
func GenerateBars(start time.Time, step time.Duration, basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		open, close := p*0.999, p
		if i%2 == 1 {
			open, close = close, open
		}
		bars[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  close,
			Volume: int64(100 + i),
		}
	}
	return bars
}
