// Package telemetry builds the logger and prometheus metrics every
// component logs/records through: NewLogger mirrors the teacher's
// vendored github.com/wisbric/core/pkg/telemetry.NewLogger (the format/
// level to slog.Handler construction internal/app/app.go calls), and the
// collector set mirrors internal/telemetry/metrics.go's own CounterVec/
// HistogramVec shapes, returned by All() for registration.
package telemetry

import (
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// NewLogger builds a slog.Logger gated by level ("debug"|"info"|"warn"|
// "error", default "info") and rendered as "json" or "text" (default
// "json"), mirroring the teacher's format/level-driven logger
// construction.
func NewLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var RequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mindconnect_agent",
		Name:      "requests_total",
		Help:      "Total number of outbound data-lake HTTP requests (URL generation and uploads) by endpoint and status.",
	},
	[]string{"endpoint", "status"},
)

var OnboardTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mindconnect_agent",
		Name:      "onboard_total",
		Help:      "Total number of onboarding attempts by result.",
	},
	[]string{"result"},
)

var TokenRefreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mindconnect_agent",
		Name:      "token_refresh_total",
		Help:      "Total number of access token acquisitions by result.",
	},
	[]string{"result"},
)

var DataLakeUploadBytesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mindconnect_agent",
		Subsystem: "datalake",
		Name:      "upload_bytes_total",
		Help:      "Total number of bytes streamed to data-lake signed URLs.",
	},
)

var RequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "mindconnect_agent",
		Name:      "request_duration_seconds",
		Help:      "Outbound HTTP request duration in seconds, by endpoint.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"endpoint"},
)

// All returns every mindconnect-agent metric for registration against a
// prometheus.Registerer.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		RequestsTotal,
		OnboardTotal,
		TokenRefreshTotal,
		DataLakeUploadBytesTotal,
		RequestDuration,
	}
}
