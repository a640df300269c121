package model

import "time"

// RenderState tags the outcome of one dashboard request.
type RenderState string

const (
	StateReady             RenderState = "ready"
	StateNoData            RenderState = "no_data"
	StateInvalidRequest    RenderState = "invalid_request"
	StateUpstreamError     RenderState = "upstream_error"
	StateMalformedResponse RenderState = "malformed_response"
	StateConfigError       RenderState = "config_error"
)

// Rectangle is the candle body keyed by (time_start, open, time_end, close).
type Rectangle struct {
	TimeStart time.Time `json:"time_start"`
	Open      float64   `json:"open"`
	TimeEnd   time.Time `json:"time_end"`
	Close     float64   `json:"close"`
	Positive  bool      `json:"positive"`
}

// Segment is the candle wick from low to high at a single instant.
type Segment struct {
	Time0 time.Time `json:"time0"`
	Low   float64   `json:"low"`
	Time1 time.Time `json:"time1"`
	High  float64   `json:"high"`
}

// VolumePoint is one sample of the volume line series.
type VolumePoint struct {
	Time   time.Time `json:"time"`
	Volume int64     `json:"volume"`
}

// RenderModel is everything the charting front end needs for one request.
type RenderModel struct {
	Title      string        `json:"title"`
	State      RenderState   `json:"state"`
	Message    string        `json:"message,omitempty"`
	Bars       []ChartBar    `json:"bars"`
	Rectangles []Rectangle   `json:"rectangles"`
	Segments   []Segment     `json:"segments"`
	Volume     []VolumePoint `json:"volume"`
	PriceLow   float64       `json:"price_low"`
	PriceHigh  float64       `json:"price_high"`
	BarWidth   time.Duration `json:"bar_width_ns"`
}

// Ready reports whether the model carries plottable bars.
func (m *RenderModel) Ready() bool { return m.State == StateReady }
