package server

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"OptionsIntraday/internal/dashboard"
	"OptionsIntraday/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// Server exposes render models to the charting front end over HTTP.
type Server struct {
	svc      *dashboard.Service
	loc      *time.Location
	gatherer prometheus.Gatherer
	engine   *gin.Engine
	srv      *http.Server
	ready    atomic.Bool
	watch    atomic.Pointer[WatchSource]
	now      func() time.Time
}

// New builds the router. loc is the display timezone used for default dates.
func New(addr string, svc *dashboard.Service, loc *time.Location, gatherer prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:      svc,
		loc:      loc,
		gatherer: gatherer,
		engine:   gin.New(),
		now:      time.Now,
	}
	s.engine.Use(gin.Recovery(), requestID(), accessLog())
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/livez", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s.engine.GET("/readyz", func(c *gin.Context) {
		if !s.ready.Load() {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ready")
	})
	if s.gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	h := &chartHandler{svc: s.svc, today: s.today, watch: s.watchSource}
	h.RegisterRoutes(s.engine.Group("/api"))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// SetWatch publishes the watch scheduler's latest result at /api/v1/watch.
func (s *Server) SetWatch(w WatchSource) { s.watch.Store(&w) }

func (s *Server) watchSource() WatchSource {
	if w := s.watch.Load(); w != nil {
		return *w
	}
	return nil
}

// SetReady flips the readiness probe.
func (s *Server) SetReady(v bool) { s.ready.Store(v) }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
		}
	}()
	s.SetReady(true)
	logger.Infof("http server listening on %s", ln.Addr())
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)
	return s.srv.Shutdown(ctx)
}

func (s *Server) today() time.Time {
	if s.loc == nil {
		return s.now()
	}
	return s.now().In(s.loc)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Info("http request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
