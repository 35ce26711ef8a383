// Package config loads the cmd/agentctl demo binary's environment
// configuration, the same way the teacher's own config.Load() does: a flat
// struct with env/envDefault tags parsed by caarlos0/env. The library
// itself is not configured this way — see pkg/agent.ConfigBuilder — this
// package exists only to drive the demo CLI.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the demo binary's configuration, loaded from environment
// variables.
type Config struct {
	// Agent management
	Host            string `env:"MINDCONNECT_HOST,required"`
	Tenant          string `env:"MINDCONNECT_TENANT,required"`
	UserAgent       string `env:"MINDCONNECT_USER_AGENT" envDefault:"mindconnect-agent-go"`
	SecurityProfile string `env:"MINDCONNECT_SECURITY_PROFILE" envDefault:"SharedSecret"`

	// Initial onboarding
	InitialAccessToken string `env:"MINDCONNECT_IAT"`

	// Credential store (optional — if not set, credentials are not persisted
	// across runs)
	CredentialStorePath string `env:"MINDCONNECT_CREDENTIAL_STORE"`

	// Proxy (optional — if ProxyHost is unset, no proxy is used)
	ProxyHost     string `env:"MINDCONNECT_PROXY_HOST"`
	ProxyPort     int    `env:"MINDCONNECT_PROXY_PORT"`
	ProxyType     string `env:"MINDCONNECT_PROXY_TYPE"`
	ProxyUser     string `env:"MINDCONNECT_PROXY_USER"`
	ProxyPassword string `env:"MINDCONNECT_PROXY_PASSWORD"`

	// HTTP
	RequestTimeoutSeconds int    `env:"MINDCONNECT_REQUEST_TIMEOUT_SECONDS" envDefault:"300"`
	CertificatePath       string `env:"MINDCONNECT_CERTIFICATE_PATH"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Metrics
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load reads the demo binary's configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}
