package recorder

import (
	"time"

	"OptionsIntraday/internal/model"
)

// FetchEvent describes the outcome of one dashboard request.
type FetchEvent struct {
	ContractID string
	Source     string // fetcher name
	State      model.RenderState
	Bars       int
	Duration   time.Duration
}

// Recorder observes request outcomes.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	Close() error
}
