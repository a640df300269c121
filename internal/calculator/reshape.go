package calculator

import (
	"time"

	"github.com/pkg/errors"

	"OptionsIntraday/internal/model"
)

var (
	// ErrNoBars is returned when a reshape is requested on an empty series.
	ErrNoBars = errors.New("no bars to reshape")
	// ErrInsufficientSamples is returned when fewer than two bars leave no gap to measure.
	ErrInsufficientSamples = errors.New("at least two bars are required for a bar width")
)

// HalfMinGap returns half of the smallest gap between consecutive bars.
// Bars must already be in ascending time order.
func HalfMinGap(bars []model.Bar) (time.Duration, error) {
	if len(bars) < 2 {
		return 0, ErrInsufficientSamples
	}
	minGap := bars[1].Time.Sub(bars[0].Time)
	for i := 2; i < len(bars); i++ {
		if gap := bars[i].Time.Sub(bars[i-1].Time); gap < minGap {
			minGap = gap
		}
	}
	return minGap / 2, nil
}

// Reshape annotates every bar with rectangle bounds time±delta, where delta is
// HalfMinGap over the whole series, and a direction flag (close > open).
// A single bar gets a zero-width rectangle.
func Reshape(bars []model.Bar) ([]model.ChartBar, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	delta, err := HalfMinGap(bars)
	if err != nil && !errors.Is(err, ErrInsufficientSamples) {
		return nil, err
	}

	out := make([]model.ChartBar, len(bars))
	for i, b := range bars {
		out[i] = model.ChartBar{
			Time:      b.Time,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			TimeStart: b.Time.Add(-delta),
			TimeEnd:   b.Time.Add(delta),
			Direction: b.Close > b.Open,
		}
	}
	return out, nil
}
