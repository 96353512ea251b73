package internal

import (
	"net/http"
	"time"

	"github.com/felixge/fgtrace"
	"go.uber.org/zap"
)

// Initfgtrace exposes a fgtrace debug endpoint when enabled. hz is the
// sampling rate of the wallclock profiler.
func Initfgtrace(enabled bool, hz int, addr string) {
	go func() {
		if !enabled {
			zap.S().Debugf("Debug tracing is disabled. Set %sTRACE__ENABLED to true to enable.", "DASHBOARD_EXPORTER__")
			return
		}
		zap.S().Warnf("fgtrace is enabled. This might hurt performance !. Set TRACE__ENABLED to false to disable.")
		http.DefaultServeMux.Handle("/debug/fgtrace", fgtrace.Config{Hz: hz})
		server := &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 3 * time.Second,
		}
		errX := server.ListenAndServe()
		if errX != nil {
			zap.S().Errorf("Failed to start fgtrace: %s", errX)
		}
	}()
}
