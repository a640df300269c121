package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"OptionsIntraday/internal/collector"
	"OptionsIntraday/internal/config"
	"OptionsIntraday/internal/dashboard"
	"OptionsIntraday/internal/logger"
	"OptionsIntraday/internal/notifier"
	"OptionsIntraday/internal/recorder"
	"OptionsIntraday/internal/scheduler"
	"OptionsIntraday/internal/server"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("[FATAL] init logger: %v", err)
	}
	defer logger.Sync()
	logger.Infof("OptionsIntraday starting...")

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("display timezone: %v", err)
	}

	// Init fetcher
	fetcher, err := collector.NewPolygonFetcher(cfg)
	if err != nil {
		logger.Fatalf("init fetcher: %v", err)
	}
	logger.Infof("data source: %s (%s)", fetcher.Name(), cfg.Polygon.BaseURL)

	// Init recorder
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var rec recorder.Recorder
	pr, err := recorder.NewPrometheusRecorder(reg)
	if err != nil {
		logger.Warnf("init prometheus recorder failed, using noop: %v", err)
		rec = recorder.NewNoopRecorder()
	} else {
		rec = pr
	}
	defer rec.Close()

	svc := dashboard.NewService(fetcher, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(cfg.Server.Addr, svc, loc, reg)
	if err := srv.Start(); err != nil {
		logger.Fatalf("start http server: %v", err)
	}

	if cfg.Watch.Enabled {
		sched := scheduler.NewScheduler(ctx, svc, scheduler.WatchRequest(cfg), loc)
		if cfg.NotifyEnabled() {
			tn, err := notifier.NewTelegramNotifier(cfg)
			if err != nil {
				logger.Fatalf("init telegram notifier: %v", err)
			}
			sched.Notifier = tn
			logger.Infof("watch summaries go to telegram chat %s", cfg.Telegram.ChatID)
		}
		if err := sched.Register(cfg.Watch.Cron); err != nil {
			logger.Fatalf("register watch task: %v", err)
		}
		srv.SetWatch(sched)
		sched.Start()
		defer sched.Stop()
		go sched.RunNow()
	}

	logger.Infof("OptionsIntraday is running on %s. Press Ctrl+C to stop.", cfg.Server.Addr)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("shutdown signal received, stopping...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
	logger.Infof("OptionsIntraday stopped")
}
