package recorder

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"OptionsIntraday/internal/logger"
)

// PrometheusRecorder exports request outcomes as Prometheus metrics.
type PrometheusRecorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastBars prometheus.Gauge
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "options_intraday",
			Subsystem: "chart",
			Name:      "requests_total",
			Help:      "Chart requests by source and render state",
		}, []string{"source", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "options_intraday",
			Subsystem: "chart",
			Name:      "request_duration_seconds",
			Help:      "Chart request duration in seconds, upstream fetch included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		lastBars: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "options_intraday",
			Subsystem: "chart",
			Name:      "last_bar_count",
			Help:      "Number of bars in the most recent ready chart",
		}),
	}

	for _, c := range []prometheus.Collector{r.requests, r.duration, r.lastBars} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metric")
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) RecordFetch(evt *FetchEvent) error {
	r.requests.WithLabelValues(evt.Source, string(evt.State)).Inc()
	r.duration.WithLabelValues(evt.Source).Observe(evt.Duration.Seconds())
	if evt.Bars > 0 {
		r.lastBars.Set(float64(evt.Bars))
	}
	logger.L().Debug("chart request recorded",
		zap.String("contract_id", evt.ContractID),
		zap.String("source", evt.Source),
		zap.String("state", string(evt.State)),
		zap.Int("bars", evt.Bars),
		zap.Duration("duration", evt.Duration),
	)
	return nil
}

func (r *PrometheusRecorder) Close() error { return nil }
