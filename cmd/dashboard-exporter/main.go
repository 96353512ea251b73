package main

/*
Target architecture:

One periodic scheduler per update tier (fast/medium/slow) fans out to the
collectors of that tier. Collectors fetch from the dashboard API, transform
into metric updates on the shared metric store and feed the satellite
inventory caches. The HTTP layer only ever reads the store, so a scrape
never fails because a collection pass did.
*/

import (
	"context"
	"net/http"
	"os"

	"github.com/heptiolabs/healthcheck"
	"github.com/merakitools/dashboard-exporter/internal"
	"github.com/merakitools/dashboard-exporter/internal/clientstore"
	"github.com/merakitools/dashboard-exporter/internal/collector"
	"github.com/merakitools/dashboard-exporter/internal/collectors"
	"github.com/merakitools/dashboard-exporter/internal/config"
	"github.com/merakitools/dashboard-exporter/internal/dashapi"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"github.com/merakitools/dashboard-exporter/internal/retain"
	"github.com/merakitools/dashboard-exporter/internal/webhook"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var buildtime string

func main() {
	// The logger has to exist before config validation can warn.
	logger := newLogger(os.Getenv(config.EnvPrefix + "LOGGING__LEVEL"))
	zap.ReplaceGlobals(logger)

	zap.S().Infof("This is dashboard-exporter build date: %s", buildtime)

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("Failed to load configuration: %s", err)
	}

	// Re-level from the parsed configuration, which applies the default.
	logger = newLogger(cfg.Logging.Level)
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	internal.Initfgtrace(cfg.Trace.Enabled, cfg.Trace.Hz, cfg.Trace.Addr)

	store := metricstore.New()
	stats := collector.NewRunStats(store.Registry())

	api := dashapi.New(dashapi.Options{
		BaseURL:       cfg.API.BaseURL,
		Key:           cfg.API.Key,
		Timeout:       cfg.API.Timeout,
		MaxConcurrent: cfg.API.MaxConcurrent,
		MaxRetries:    cfg.API.MaxRetries,
		Observe:       stats.ObserveAPICall,
		UserAgent:     "dashboard-exporter " + buildtime,
	})

	clients := clientstore.New(cfg.Cache.ClientTTL)
	discovery := clientstore.NewDiscoveryService(cfg.Cache.DiscoveryTTL)
	retainCache := retain.New(retain.WithZeroValid(collectors.ZeroValidMetrics...))

	deps := collector.Deps{
		API:       api,
		Store:     store,
		Retain:    retainCache,
		Clients:   clients,
		Discovery: discovery,
		Cfg:       cfg,
	}

	manager := collector.NewManager(collector.Intervals{
		Fast:   cfg.Tiers.Fast,
		Medium: cfg.Tiers.Medium,
		Slow:   cfg.Tiers.Slow,
	}, cfg.Tiers.CollectorTimeout, stats)
	manager.AddAll(collectors.BuildRegistry(cfg.Collectors).Build(deps))

	webhookHandler := webhook.New(cfg.Webhook, store)

	ctx, cancel := context.WithCancel(context.Background())
	gs := internal.NewGracefulShutdown(func() error {
		cancel()
		return nil
	})

	zap.S().Debugf("Setting up healthcheck")
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	health.AddReadinessCheck("shutdownEnabled", isShutdownEnabled(gs))
	go func() {
		err := http.ListenAndServe(cfg.Server.HealthAddr, health)
		if err != nil {
			zap.S().Errorf("Error starting healthcheck: %s", err)
		}
	}()

	go SetupRestAPI(store, webhookHandler, gs, cfg.Server.ListenAddr)

	go manager.Run(ctx)

	gs.Wait()
	zap.S().Infof("Successfull shutdown. Exiting.")
}

// newLogger builds the process logger. DEVELOPMENT enables debug logging,
// everything else runs at info.
func newLogger(level string) *zap.Logger {
	encoderConfig := ecszap.NewDefaultEncoderConfig()
	var core zapcore.Core
	switch level {
	case "DEVELOPMENT":
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.DebugLevel)
	default:
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.InfoLevel)
	}
	return zap.New(core, zap.AddCaller())
}

func isShutdownEnabled(gs internal.GracefulShutdownHandler) healthcheck.Check {
	return func() error {
		if gs.ShuttingDown() {
			return errShutdown
		}
		return nil
	}
}
