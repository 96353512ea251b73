package main

import (
	"errors"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/merakitools/dashboard-exporter/internal"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"github.com/merakitools/dashboard-exporter/internal/webhook"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var errShutdown = errors.New("shutdown")

// SetupRestAPI initializes the REST API and starts listening
func SetupRestAPI(store *metricstore.Store, wh *webhook.Handler, gs internal.GracefulShutdownHandler, addr string) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	router.GET(
		"/", func(c *gin.Context) {
			if gs.ShuttingDown() {
				c.String(http.StatusOK, "shutdown")
			} else {
				c.String(http.StatusOK, "online")
			}
		})

	router.GET("/health", func(c *gin.Context) {
		if gs.ShuttingDown() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutdown"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Scrapes always serve whatever is currently in the store, even when
	// the latest collection pass failed. Staleness is visible through the
	// last-success metric, never through a failed scrape.
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(store.Registry(), promhttp.HandlerOpts{})))

	router.GET("/cardinality", func(c *gin.Context) {
		families, err := store.Cardinality()
		if err != nil {
			zap.S().Errorw("Failed to gather cardinality", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to gather metrics"})
			return
		}
		total := 0
		for _, fam := range families {
			total += fam.Series
		}
		c.JSON(http.StatusOK, gin.H{"families": families, "total_series": total})
	})

	router.POST("/webhook", wh.Handle)

	err := router.Run(addr)
	if err != nil {
		zap.S().Errorf("Failed to bind to %s: %s", addr, err)
		gs.Shutdown()
		return
	}
}
