package model

import "time"

// Bar is one raw OHLCV sample returned by the market data source.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// ChartBar is a Bar annotated with rectangle bounds for candlestick plotting.
type ChartBar struct {
	Time      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
	Direction bool      `json:"positive"` // close > open
}

// Bar projects the chart bar back to its raw sample.
func (c ChartBar) Bar() Bar {
	return Bar{
		Time:   c.Time,
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}

// Timespan is the unit of an aggregate bar interval.
type Timespan string

const (
	Minute  Timespan = "minute"
	Hour    Timespan = "hour"
	Day     Timespan = "day"
	Week    Timespan = "week"
	Month   Timespan = "month"
	Quarter Timespan = "quarter"
	Year    Timespan = "year"
)

// Timespans lists the units accepted by the aggregates endpoint.
var Timespans = []Timespan{Minute, Hour, Day, Week, Month, Quarter, Year}

// Valid reports whether t is a supported unit.
func (t Timespan) Valid() bool {
	for _, ts := range Timespans {
		if t == ts {
			return true
		}
	}
	return false
}

// BarQuery describes one aggregates request for a single contract.
type BarQuery struct {
	ContractID string
	Multiplier int
	Timespan   Timespan
	From       time.Time // calendar date, time of day ignored
	To         time.Time
}
