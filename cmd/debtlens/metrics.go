// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// analyzeMetrics mirrors the teacher's ingestion-stage Prometheus gauges:
// counts of files processed/failed and a histogram of per-file parse
// duration, the direct analog of cie index's embedding-stage metrics.
type analyzeMetrics struct {
	filesProcessed prometheus.Counter
	filesFailed    prometheus.Counter
	parseDuration  prometheus.Histogram
}

func newAnalyzeMetrics() *analyzeMetrics {
	m := &analyzeMetrics{
		filesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debtlens_files_processed_total",
			Help: "Number of source files successfully extracted.",
		}),
		filesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debtlens_files_failed_total",
			Help: "Number of source files that failed to parse.",
		}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "debtlens_parse_duration_seconds",
			Help:    "Per-file extraction duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	prometheus.MustRegister(m.filesProcessed, m.filesFailed, m.parseDuration)
	return m
}

// serveMetrics starts the Prometheus HTTP endpoint in the background, the
// same shape as cie index's --metrics-addr handling.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}
