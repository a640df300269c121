package scheduler

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"OptionsIntraday/internal/config"
	"OptionsIntraday/internal/dashboard"
	"OptionsIntraday/internal/logger"
	"OptionsIntraday/internal/model"
	"OptionsIntraday/internal/notifier"
)

// RequestFunc builds the request for one watch run.
type RequestFunc func(now time.Time) (dashboard.Request, error)

// Scheduler periodically re-renders one watched contract.
type Scheduler struct {
	Cron    *cron.Cron
	Service *dashboard.Service
	Request RequestFunc
	Ctx     context.Context
	// Notifier, when set, receives the summary whenever the render state
	// differs from the previous run.
	Notifier notifier.Notifier

	running atomic.Bool
	last    atomic.Pointer[model.RenderModel]
	now     func() time.Time
}

// NewScheduler creates a new Scheduler. Cron specs take a leading seconds field.
func NewScheduler(ctx context.Context, svc *dashboard.Service, req RequestFunc, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Service: svc,
		Request: req,
		Ctx:     ctx,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

// Register adds the watch refresh job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return errors.Wrapf(err, "register watch task %q", spec)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Infof("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Infof("scheduler stopped")
}

// RunNow renders the watch request once. It returns false when a previous
// run is still in flight and this one was skipped.
func (s *Scheduler) RunNow() bool {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warnf("watch run skipped: previous run still in progress")
		return false
	}
	defer s.running.Store(false)

	var m model.RenderModel
	req, err := s.Request(s.now())
	if err != nil {
		m = dashboard.Rejected(err)
		logger.Errorf("watch request: %v", err)
	} else {
		m = s.Service.HandleRequest(s.Ctx, req)
	}
	prev := s.last.Swap(&m)

	summary := FormatSummary(m)
	if m.Ready() || m.State == model.StateNoData {
		logger.Infof("%s", summary)
	} else {
		logger.Warnf("%s", summary)
	}
	if s.Notifier != nil && (prev == nil || prev.State != m.State) {
		if err := s.Notifier.Notify(s.Ctx, summary); err != nil {
			logger.Errorf("notify watch summary: %v", err)
		}
	}
	return true
}

// Last returns the most recent watch result, or nil before the first run.
func (s *Scheduler) Last() *model.RenderModel {
	return s.last.Load()
}

// WatchRequest builds a RequestFunc from the watch section of cfg. Dates cover
// the current day; an unset expiry defaults to the nearest Friday still live.
func WatchRequest(cfg *config.Config) RequestFunc {
	w := cfg.Watch
	return func(now time.Time) (dashboard.Request, error) {
		today := now.Format("2006-01-02")
		raw := dashboard.RawRequest{
			Ticker:     w.Ticker,
			Expiry:     w.Expiry,
			OptionType: w.OptionType,
			Unit:       w.Unit,
			Start:      today,
			End:        today,
		}
		if w.Strike != 0 {
			raw.Strike = strconv.FormatFloat(w.Strike, 'f', -1, 64)
		}
		if w.Interval != 0 {
			raw.Interval = strconv.Itoa(w.Interval)
		}
		def := dashboard.DefaultRequest(now)
		def.Expiry = dashboard.NextFriday(now)
		return dashboard.ParseRequest(raw, def)
	}
}
