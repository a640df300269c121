package dashboard

import (
	"OptionsIntraday/internal/calculator"
	"OptionsIntraday/internal/logger"
	"OptionsIntraday/internal/model"
)

// geometry projects reshaped bars onto the three plotted series: candle
// bodies, wicks and the volume line.
func geometry(title string, chart []model.ChartBar) model.RenderModel {
	m := model.RenderModel{
		Title:      title,
		State:      model.StateReady,
		Bars:       chart,
		Rectangles: make([]model.Rectangle, len(chart)),
		Segments:   make([]model.Segment, len(chart)),
		Volume:     make([]model.VolumePoint, len(chart)),
	}
	for i, b := range chart {
		m.Rectangles[i] = model.Rectangle{
			TimeStart: b.TimeStart,
			Open:      b.Open,
			TimeEnd:   b.TimeEnd,
			Close:     b.Close,
			Positive:  b.Direction,
		}
		m.Segments[i] = model.Segment{Time0: b.Time, Low: b.Low, Time1: b.Time, High: b.High}
		m.Volume[i] = model.VolumePoint{Time: b.Time, Volume: b.Volume}
	}
	if len(chart) > 0 {
		m.BarWidth = chart[0].TimeEnd.Sub(chart[0].TimeStart)
	}

	low, high, err := calculator.PriceRange(chart)
	if err != nil {
		logger.Warnf("[%s] price range: %v", title, err)
		return m
	}
	m.PriceLow, m.PriceHigh = low, high
	return m
}
