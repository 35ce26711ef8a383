package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisbric/mindconnect-agent/internal/config"
	"github.com/wisbric/mindconnect-agent/internal/telemetry"
	"github.com/wisbric/mindconnect-agent/pkg/agent"
	"github.com/wisbric/mindconnect-agent/pkg/datalake"
	"github.com/wisbric/mindconnect-agent/pkg/security"
)

func main() {
	command := flag.String("command", "", "one of: onboard, rotate, token, upload")
	path := flag.String("path", "", "object path for -command=upload")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *command, *path); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command, objectPath string) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(telemetry.All()...)
	go serveMetrics(cfg, logger, registry)

	core, err := buildCore(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing core: %w", err)
	}

	switch command {
	case "onboard":
		return runOnboard(ctx, logger, core)
	case "rotate":
		return runRotate(ctx, logger, core)
	case "token":
		return runToken(ctx, logger, core)
	case "upload":
		return runUpload(ctx, logger, core, objectPath)
	default:
		return fmt.Errorf("unknown -command %q (want onboard, rotate, token, or upload)", command)
	}
}

func buildCore(cfg *config.Config, logger *slog.Logger) (*agent.Core, error) {
	builder := agent.NewConfigBuilder().
		Host(cfg.Host).
		Tenant(cfg.Tenant).
		UserAgent(cfg.UserAgent).
		SecurityProfile(security.Profile(cfg.SecurityProfile)).
		InitialAccessToken(cfg.InitialAccessToken).
		HTTPRequestTimeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second).
		CertificateFile(cfg.CertificatePath)

	if cfg.ProxyHost != "" {
		builder = builder.Proxy(cfg.ProxyHost, cfg.ProxyPort, cfg.ProxyType, cfg.ProxyUser, cfg.ProxyPassword, "")
	}
	if cfg.CredentialStorePath != "" {
		builder = builder.CredentialStore(security.NewFileCredentialStore(cfg.CredentialStorePath))
	}

	agentCfg, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return agent.New(agentCfg, logger)
}

func runOnboard(ctx context.Context, logger *slog.Logger, core *agent.Core) error {
	if core.IsOnboarded() {
		logger.Info("already onboarded", "client_id", core.Identity().ClientID)
		return nil
	}
	if err := core.Onboard(ctx); err != nil {
		return fmt.Errorf("onboarding: %w", err)
	}
	logger.Info("onboarded", "client_id", core.Identity().ClientID)
	return nil
}

func runRotate(ctx context.Context, logger *slog.Logger, core *agent.Core) error {
	if !core.IsOnboarded() {
		return fmt.Errorf("cannot rotate: agent is not onboarded")
	}
	if err := core.Rotate(ctx); err != nil {
		return fmt.Errorf("rotating credentials: %w", err)
	}
	logger.Info("rotated credentials", "client_id", core.Identity().ClientID)
	return nil
}

func runToken(ctx context.Context, logger *slog.Logger, core *agent.Core) error {
	if !core.IsOnboarded() {
		return fmt.Errorf("cannot acquire a token: agent is not onboarded")
	}
	if err := core.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("acquiring access token: %w", err)
	}
	logger.Info("acquired access token")
	return nil
}

func runUpload(ctx context.Context, logger *slog.Logger, core *agent.Core, objectPath string) error {
	if objectPath == "" {
		return fmt.Errorf("-path is required for -command=upload")
	}
	if !core.IsOnboarded() {
		return fmt.Errorf("cannot upload: agent is not onboarded")
	}
	if err := core.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("acquiring access token: %w", err)
	}

	handle, err := datalake.New(&datalake.Config{Core: core})
	if err != nil {
		return fmt.Errorf("initializing data-lake handle: %w", err)
	}

	data, err := os.ReadFile(objectPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", objectPath, err)
	}

	obj := datalake.NewObject(filepath.Base(objectPath), int64(len(data)),
		func(ctx context.Context, userContext any) (io.Reader, error) {
			return bytes.NewReader(data), nil
		}, nil)

	if err := handle.GenerateUploadURLs(ctx, []*datalake.Object{obj}); err != nil {
		return fmt.Errorf("generating upload url: %w", err)
	}
	if err := handle.Upload(ctx, obj); err != nil {
		return fmt.Errorf("uploading %s: %w", objectPath, err)
	}
	logger.Info("uploaded object", "path", objectPath, "bytes", len(data))
	return nil
}

func serveMetrics(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", cfg.MetricsAddr, "path", cfg.MetricsPath)
	if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
