// Package agent is the Core: validated configuration, the credential
// processor state machine, and the handle that ties them to a transport
// client and security handler. It generalizes the teacher's
// internal/httpserver/validate.go package-level validator.New() singleton
// to the library's own Config type instead of HTTP request DTOs.
package agent

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
	"github.com/wisbric/mindconnect-agent/pkg/security"
)

const (
	maxHostNameLength  = 256
	maxUserAgentLength = 256
	maxProxyLength     = 64

	defaultRequestTimeout = 300 * time.Second

	libraryVersion = "1.0.0"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CriticalSection is the optional reentrant-safe enter/leave callback pair
// wrapping onboard/rotate/update-credentials. Both or neither must be set.
type CriticalSection struct {
	Enter func()
	Leave func()
}

// Config is the validated, immutable-after-Build configuration record for a
// Core handle.
type Config struct {
	Host            string        `validate:"required,max=256"`
	Tenant          string        `validate:"required,max=256"`
	UserAgent       string        `validate:"required,max=256"`
	SecurityProfile security.Profile `validate:"required,oneof=SharedSecret RSA3072"`

	Port int

	ProxyHost     string `validate:"max=64"`
	ProxyPort     int    `validate:"required_with=ProxyHost"`
	ProxyType     string `validate:"required_with=ProxyHost,omitempty,oneof=http https socks5"`
	ProxyUser     string `validate:"max=64"`
	ProxyPassword string `validate:"required_with=ProxyUser,max=64"`
	ProxyDomain   string `validate:"max=64"`

	HTTPRequestTimeout time.Duration
	CertificatePEM     string
	CertificateFile    string

	InitialAccessToken string

	CredentialsLoadCallback  func() (security.StoredCredentials, error)
	CredentialsSaveCallback  func(security.StoredCredentials) error
	CriticalSection          *CriticalSection
}

// RegisterEndpoint returns the onboarding endpoint URL, composed from Host
// on each call.
func (c *Config) RegisterEndpoint() string {
	return strings.TrimRight(c.Host, "/") + "/api/agentmanagement/v3/register"
}

// TokenEndpoint returns the access-token endpoint URL, composed from Host
// on each call.
func (c *Config) TokenEndpoint() string {
	return strings.TrimRight(c.Host, "/") + "/api/agentmanagement/v3/oauth/token"
}

// UserAgentHeader returns the User-Agent header value emitted on every
// request: "MCL/<version> (<agent-text>)".
func (c *Config) UserAgentHeader() string {
	return fmt.Sprintf("MCL/%s (%s)", libraryVersion, c.UserAgent)
}

// Certificate resolves the configured certificate: a literal PEM string, a
// path to read one from, or empty (defer to the transport's default trust
// store).
func (c *Config) Certificate() (string, error) {
	if c.CertificatePEM != "" {
		return c.CertificatePEM, nil
	}
	if c.CertificateFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.CertificateFile)
	if err != nil {
		return "", mclerror.Wrap(mclerror.InvalidParameter, "reading certificate file", err)
	}
	return string(data), nil
}

// ConfigBuilder assembles a Config field by field and validates it on
// Build, matching the teacher's pattern of a package-level validator
// singleton (internal/httpserver/validate.go) run once over a fully
// populated struct rather than per-field checks.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder returns a builder seeded with the spec's defaults:
// http_request_timeout = 300s, security_profile = SharedSecret.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: Config{
		HTTPRequestTimeout: defaultRequestTimeout,
		SecurityProfile:    security.SharedSecret,
	}}
}

func (b *ConfigBuilder) Host(host string) *ConfigBuilder           { b.cfg.Host = host; return b }
func (b *ConfigBuilder) Tenant(tenant string) *ConfigBuilder       { b.cfg.Tenant = tenant; return b }
func (b *ConfigBuilder) UserAgent(agent string) *ConfigBuilder     { b.cfg.UserAgent = agent; return b }
func (b *ConfigBuilder) Port(port int) *ConfigBuilder              { b.cfg.Port = port; return b }

func (b *ConfigBuilder) SecurityProfile(profile security.Profile) *ConfigBuilder {
	b.cfg.SecurityProfile = profile
	return b
}

func (b *ConfigBuilder) Proxy(host string, port int, proxyType, user, password, domain string) *ConfigBuilder {
	b.cfg.ProxyHost = host
	b.cfg.ProxyPort = port
	b.cfg.ProxyType = proxyType
	b.cfg.ProxyUser = user
	b.cfg.ProxyPassword = password
	b.cfg.ProxyDomain = domain
	return b
}

func (b *ConfigBuilder) HTTPRequestTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.HTTPRequestTimeout = d
	return b
}

func (b *ConfigBuilder) CertificatePEM(pem string) *ConfigBuilder {
	b.cfg.CertificatePEM = pem
	return b
}

func (b *ConfigBuilder) CertificateFile(path string) *ConfigBuilder {
	b.cfg.CertificateFile = path
	return b
}

func (b *ConfigBuilder) InitialAccessToken(iat string) *ConfigBuilder {
	b.cfg.InitialAccessToken = iat
	return b
}

// CredentialCallbacks sets the load/save pair. Both must be provided
// together; Build rejects one set without the other.
func (b *ConfigBuilder) CredentialCallbacks(
	load func() (security.StoredCredentials, error),
	save func(security.StoredCredentials) error,
) *ConfigBuilder {
	b.cfg.CredentialsLoadCallback = load
	b.cfg.CredentialsSaveCallback = save
	return b
}

// CredentialStore is a convenience over CredentialCallbacks for callers
// holding a security.CredentialStore implementation (e.g.
// security.FileCredentialStore) instead of two bare funcs.
func (b *ConfigBuilder) CredentialStore(store security.CredentialStore) *ConfigBuilder {
	return b.CredentialCallbacks(store.Load, store.Save)
}

func (b *ConfigBuilder) CriticalSectionCallbacks(enter, leave func()) *ConfigBuilder {
	b.cfg.CriticalSection = &CriticalSection{Enter: enter, Leave: leave}
	return b
}

// Build validates the assembled configuration and returns an immutable
// Config, or an InvalidParameter error listing every failed validation rule.
func (b *ConfigBuilder) Build() (*Config, error) {
	cfg := b.cfg

	if err := validate.Struct(&cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return nil, mclerror.Newf(mclerror.InvalidParameter, "configuration invalid: %s", formatValidationErrors(verrs))
		}
		return nil, mclerror.Wrap(mclerror.InvalidParameter, "validating configuration", err)
	}

	switch {
	case cfg.CredentialsLoadCallback == nil && cfg.CredentialsSaveCallback != nil,
		cfg.CredentialsLoadCallback != nil && cfg.CredentialsSaveCallback == nil:
		return nil, mclerror.New(mclerror.InvalidParameter, "credentials load and save callbacks must be paired")
	}

	if cfg.CriticalSection != nil {
		if (cfg.CriticalSection.Enter == nil) != (cfg.CriticalSection.Leave == nil) {
			return nil, mclerror.New(mclerror.InvalidParameter, "critical-section enter and leave callbacks must be paired")
		}
	}

	return &cfg, nil
}

func formatValidationErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %q", e.Field(), e.Tag()))
	}
	return strings.Join(parts, "; ")
}
