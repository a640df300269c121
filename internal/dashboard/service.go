// Package dashboard turns one dashboard request into a chart-ready render model.
//
// HandleRequest runs the whole pipeline (contract id, fetch, reshape) and never
// returns an error: every failure is reported through RenderModel.State so the
// front end can choose between a chart, an empty state and an error banner.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"OptionsIntraday/internal/calculator"
	"OptionsIntraday/internal/collector"
	"OptionsIntraday/internal/config"
	"OptionsIntraday/internal/contract"
	"OptionsIntraday/internal/logger"
	"OptionsIntraday/internal/model"
	"OptionsIntraday/internal/recorder"
)

// Service composes the fetcher with the reshaping and geometry steps.
type Service struct {
	Fetcher  collector.Fetcher
	Recorder recorder.Recorder

	now func() time.Time
}

// NewService creates a Service. A nil recorder disables recording.
func NewService(fetcher collector.Fetcher, rec recorder.Recorder) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Fetcher: fetcher, Recorder: rec, now: time.Now}
}

// HandleRequest runs format -> fetch -> reshape for req.
func (s *Service) HandleRequest(ctx context.Context, req Request) model.RenderModel {
	started := s.now()
	m := s.render(ctx, req)

	if err := s.Recorder.RecordFetch(&recorder.FetchEvent{
		ContractID: m.Title,
		Source:     s.Fetcher.Name(),
		State:      m.State,
		Bars:       len(m.Bars),
		Duration:   s.now().Sub(started),
	}); err != nil {
		logger.Errorf("record fetch: %v", err)
	}
	return m
}

// ContractID formats the contract id for req without fetching.
func (s *Service) ContractID(req Request) (string, error) {
	return contract.FormatParts(req.Ticker, req.Expiry, req.OptionType, req.Strike)
}

func (s *Service) render(ctx context.Context, req Request) model.RenderModel {
	if err := req.Validate(); err != nil {
		return failed("", model.StateInvalidRequest, err)
	}
	id, err := s.ContractID(req)
	if err != nil {
		return failed("", model.StateInvalidRequest, err)
	}

	bars, err := s.Fetcher.FetchBars(ctx, req.Query(id))
	if err != nil {
		state := classify(err)
		if state == model.StateInvalidRequest {
			logger.Infof("[%s] rejected: %v", id, err)
		} else {
			logger.Warnf("[%s] fetch failed (%s): %v", id, state, err)
		}
		return failed(id, state, err)
	}
	if len(bars) == 0 {
		logger.Infof("[%s] no bars for %s..%s", id, req.Start.Format(dateLayout), req.End.Format(dateLayout))
		m := empty(id, model.StateNoData)
		m.Message = "no bars for the requested range"
		return m
	}

	chart, err := calculator.Reshape(bars)
	if err != nil {
		return failed(id, model.StateMalformedResponse, err)
	}
	if len(chart) == 1 {
		logger.Debugf("[%s] single bar, zero-width rectangle", id)
	}
	m := geometry(id, chart)
	logger.Infof("[%s] %d bars, width %v", id, len(chart), m.BarWidth)
	return m
}

func classify(err error) model.RenderState {
	switch {
	case errors.Is(err, collector.ErrInvalidQuery),
		errors.Is(err, contract.ErrInvalidContractSpec),
		errors.Is(err, ErrInvalidRequest):
		return model.StateInvalidRequest
	case errors.Is(err, config.ErrMissingAPIKey),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, collector.ErrUnauthorized):
		return model.StateConfigError
	case errors.Is(err, collector.ErrMalformedResponse):
		return model.StateMalformedResponse
	default:
		return model.StateUpstreamError
	}
}

func empty(title string, state model.RenderState) model.RenderModel {
	return model.RenderModel{
		Title:      title,
		State:      state,
		Bars:       []model.ChartBar{},
		Rectangles: []model.Rectangle{},
		Segments:   []model.Segment{},
		Volume:     []model.VolumePoint{},
	}
}

func failed(title string, state model.RenderState, err error) model.RenderModel {
	m := empty(title, state)
	m.Message = err.Error()
	return m
}

// Rejected is the render model for a request that could not be parsed.
func Rejected(err error) model.RenderModel {
	return failed("", model.StateInvalidRequest, err)
}
