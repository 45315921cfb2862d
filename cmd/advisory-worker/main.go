// cmd/advisory-worker/main.go
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

	"go.uber.org/zap"

	"agri-advisor/internal/api"
	"agri-advisor/internal/catalog"
	"agri-advisor/internal/common/aws"
	"agri-advisor/internal/common/camunda"
	"agri-advisor/internal/common/config"
	"agri-advisor/internal/common/database"
	commonhttp "agri-advisor/internal/common/http"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/observability"
	"agri-advisor/internal/intent"
	"agri-advisor/internal/orchestrator"
	"agri-advisor/internal/toolinvoker"

	di "agri-advisor/internal/workers/advisory/detect-intent"
	oq "agri-advisor/internal/workers/advisory/orchestrate-query"
	rs "agri-advisor/internal/workers/advisory/resolve-servers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting advisory worker",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.App.Name,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}, log)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// --- PostgreSQL catalog ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := retryWithBackoff(func() error { return pg.Ping(ctx) }, 15, 2*time.Second, zapLog, "PostgreSQL connection"); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected")

	// --- Redis cache ---
	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := retryWithBackoff(func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, zapLog, "Redis connection"); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected")

	readiness := map[string]api.Check{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}

	var store catalog.Store = catalog.NewPostgresStore(pg.DB)

	// --- Optional Elasticsearch region index ---
	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch init failed", zap.Error(err))
		}
		if err := retryWithBackoff(func() error { return es.Ping(ctx) }, 10, 2*time.Second, zapLog, "Elasticsearch connection"); err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		store = catalog.IndexedStore{
			Store: store,
			Index: catalog.NewElasticRegionIndex(es.Client, cfg.Database.Elasticsearch.RegionIndex),
		}
		readiness["elasticsearch"] = es.Ping
		zapLog.Info("Elasticsearch region index enabled", zap.String("index", cfg.Database.Elasticsearch.RegionIndex))
	}

	// --- Catalog, intent and orchestration core ---
	endpoints := catalog.NewEndpoints(cfg.ToolServers.Endpoints)
	if endpoints.Len() == 0 {
		zapLog.Warn("no tool server endpoints configured; every category will fall back")
	}
	registry := catalog.NewServerRegistry(store, catalog.NewRegionResolver(store, log), endpoints, log)

	httpClient := commonhttp.NewClient(2 * config.GetDuration(cfg.ToolServers.ImageTimeout))
	invoker := toolinvoker.New(httpClient, config.GetDuration(cfg.ToolServers.Timeout), log)

	var classifier intent.Classifier
	if cfg.APIs.Classifier.BaseURL != "" {
		classifier = intent.NewRemoteClassifier(&intent.ClassifierConfig{
			BaseURL:    cfg.APIs.Classifier.BaseURL,
			Timeout:    config.GetDuration(cfg.APIs.Classifier.Timeout),
			MaxRetries: cfg.APIs.Classifier.MaxRetries,
			CacheTTL:   config.GetDuration(cfg.APIs.Classifier.CacheTTL),
		}, httpClient, rdb.Client, log)
	} else {
		zapLog.Warn("intent classifier not configured; keyword detection only")
	}
	detector := intent.NewDetector(classifier, log)

	bindings, err := orchestrator.LoadBindings(cfg.ToolServers.BindingsPath)
	if err != nil {
		zapLog.Fatal("category bindings load failed", zap.Error(err), zap.String("path", cfg.ToolServers.BindingsPath))
	}
	orch := orchestrator.New(detector, invoker, bindings, orchestrator.Config{
		ToolTimeout:  config.GetDuration(cfg.ToolServers.Timeout),
		ImageTimeout: config.GetDuration(cfg.ToolServers.ImageTimeout),
	}, obs, log)

	// --- Background health monitor ---
	var monitor *catalog.HealthMonitor
	if cfg.Health.Enabled {
		var alerter catalog.HealthAlerter
		if cfg.AWS.SNS.Enabled {
			sns, err := aws.NewSNSClient(ctx, cfg.AWS.Region, cfg.AWS.SNS.HealthTopicARN, cfg.App.Name)
			if err != nil {
				zapLog.Fatal("sns client init failed", zap.Error(err))
			}
			alerter = sns
		}
		monitor = catalog.NewHealthMonitor(store, rdb.Client, alerter, httpClient, catalog.HealthMonitorConfig{
			ProbeTimeout: config.GetDuration(cfg.Health.ProbeTimeout),
			CacheTTL:     config.GetDuration(cfg.Health.CacheTTL),
		}, log)
		go monitor.Run(ctx, config.GetDuration(cfg.Health.Interval), registry.MonitoredServers)
	}

	// --- Zeebe workers ---
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			RetryConfig:            &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer zeebe.Close()
		readiness["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected")

		start := func(taskType string, handler camunda.JobHandler) {
			wc := config.GetWorkerConfig(cfg, taskType)
			if !wc.Enabled {
				zapLog.Info("worker disabled", zap.String("taskType", taskType))
				return
			}
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, camunda.WorkerOptions{
				Name:          cfg.App.Name,
				MaxJobsActive: wc.MaxJobsActive,
				Timeout:       config.GetDuration(wc.Timeout),
			}, handler, log))
		}

		start(oq.TaskType, oq.NewHandler(
			&oq.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, oq.TaskType).Timeout)},
			registry, orch, log,
		))
		start(rs.TaskType, rs.NewHandler(
			&rs.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, rs.TaskType).Timeout)},
			registry, log,
		))
		start(di.TaskType, di.NewHandler(
			&di.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, di.TaskType).Timeout)},
			detector, log,
		))
		zapLog.Info("workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP: health, readiness, metrics ---
	deps := api.Deps{Checks: readiness, Logger: log}
	if monitor != nil {
		deps.Servers = monitor
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")

	for _, w := range workers {
		w.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
}
