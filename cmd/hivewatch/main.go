package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"

	"github.com/selemilka/hivewatch/internal/client"
	"github.com/selemilka/hivewatch/internal/config"
	"github.com/selemilka/hivewatch/internal/httpapi"
	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/monitor"
	"github.com/selemilka/hivewatch/internal/stats"
	"github.com/selemilka/hivewatch/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hivewatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.StringP("config", "c", "", "path to YAML config (defaults apply when empty)")
	backend := flag.String("backend", "", "dashboard gRPC address")
	httpAddr := flag.String("http", "", "HTTP API listen address")
	statusFilter := flag.String("status-filter", "", "only track the status of this process id")
	metricsFilter := flag.String("metrics-filter", "", "only track the metrics of this process id")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	logFile := flag.String("log-file", "", "also write JSON logs to this file")
	traceDir := flag.String("trace-dir", "", "write span JSONL files to this directory")
	retryDelay := flag.Duration("retry-delay", 0, "wait between reconnect attempts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	overrides := map[string]func(){
		"backend":        func() { cfg.Backend = *backend },
		"http":           func() { cfg.HTTPListenAddr = *httpAddr },
		"status-filter":  func() { cfg.StatusFilter = *statusFilter },
		"metrics-filter": func() { cfg.MetricsFilter = *metricsFilter },
		"log-level":      func() { cfg.LogLevel = *logLevel },
		"log-file":       func() { cfg.LogFile = *logFile },
		"trace-dir":      func() { cfg.TraceDir = *traceDir },
		"retry-delay":    func() { cfg.Reconcile.RetryDelay = *retryDelay },
	}
	flag.Visit(func(f *flag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set()
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := hwlog.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	defer hwlog.Close()
	log := hwlog.For("main")
	log.Info("hivewatch starting", "node", cfg.NodeName, "backend", cfg.Backend)

	shutdownTracing, err := tracing.Setup(cfg.TraceDir, "hivewatch", cfg.NodeName)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	st := stats.New(reg)

	c, err := client.Dial(cfg.Backend)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mon := monitor.New(cfg, c, monitor.WithStats(st))
	if err := mon.Start(ctx); err != nil {
		return err
	}
	defer mon.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           httpapi.NewRouter(mon, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http api listening", "addr", cfg.HTTPListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http api: %w", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	log.Info("hivewatch stopped")
	return nil
}
