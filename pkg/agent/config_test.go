package agent

import (
	"os"
	"testing"
	"time"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
	"github.com/wisbric/mindconnect-agent/pkg/security"
)

func validBuilder() *ConfigBuilder {
	return NewConfigBuilder().
		Host("https://southgate.eu1.mindsphere.io").
		Tenant("br-smk1").
		UserAgent("agent-test").
		InitialAccessToken("iat")
}

func TestBuildDefaults(t *testing.T) {
	cfg, err := validBuilder().Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if cfg.HTTPRequestTimeout != defaultRequestTimeout {
		t.Errorf("HTTPRequestTimeout = %v, want %v", cfg.HTTPRequestTimeout, defaultRequestTimeout)
	}
	if cfg.SecurityProfile != security.SharedSecret {
		t.Errorf("SecurityProfile = %v, want SharedSecret", cfg.SecurityProfile)
	}
}

func TestBuildRejectsEmptyHost(t *testing.T) {
	_, err := NewConfigBuilder().Tenant("t").UserAgent("a").Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildRejectsMissingTenant(t *testing.T) {
	_, err := NewConfigBuilder().Host("h").UserAgent("a").Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildRejectsHostTooLong(t *testing.T) {
	longHost := make([]byte, maxHostNameLength+1)
	for i := range longHost {
		longHost[i] = 'a'
	}
	_, err := NewConfigBuilder().Host(string(longHost)).Tenant("t").UserAgent("a").Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildRejectsProxyHostWithoutPortOrType(t *testing.T) {
	_, err := validBuilder().Proxy("proxy.example.com", 0, "", "", "", "").Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildAcceptsCompleteProxy(t *testing.T) {
	_, err := validBuilder().Proxy("proxy.example.com", 8080, "http", "", "", "").Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
}

func TestBuildRejectsProxyUserWithoutPassword(t *testing.T) {
	_, err := validBuilder().Proxy("proxy.example.com", 8080, "http", "user", "", "").Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildRejectsUnknownSecurityProfile(t *testing.T) {
	_, err := validBuilder().SecurityProfile("bogus").Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildRejectsUnpairedCredentialCallbacks(t *testing.T) {
	cfg := validBuilder()
	cfg.cfg.CredentialsLoadCallback = func() (security.StoredCredentials, error) { return security.StoredCredentials{}, nil }
	_, err := cfg.Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestBuildRejectsUnpairedCriticalSectionCallbacks(t *testing.T) {
	cfg := validBuilder()
	cfg.cfg.CriticalSection = &CriticalSection{Enter: func() {}}
	_, err := cfg.Build()
	if mclerror.KindOf(err) != mclerror.InvalidParameter {
		t.Fatalf("Build() = %v, want InvalidParameter", err)
	}
}

func TestEndpointComposition(t *testing.T) {
	cfg, err := validBuilder().Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got, want := cfg.RegisterEndpoint(), "https://southgate.eu1.mindsphere.io/api/agentmanagement/v3/register"; got != want {
		t.Errorf("RegisterEndpoint() = %q, want %q", got, want)
	}
	if got, want := cfg.TokenEndpoint(), "https://southgate.eu1.mindsphere.io/api/agentmanagement/v3/oauth/token"; got != want {
		t.Errorf("TokenEndpoint() = %q, want %q", got, want)
	}
}

func TestUserAgentHeaderFormat(t *testing.T) {
	cfg, err := validBuilder().Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	header := cfg.UserAgentHeader()
	if header == "" || header[:4] != "MCL/" {
		t.Errorf("UserAgentHeader() = %q, want an MCL/<version> (...) prefix", header)
	}
}

func TestCertificateFromFile(t *testing.T) {
	path := t.TempDir() + "/cert.pem"
	pem := "-----BEGIN CERTIFICATE-----\nfake\n-----END CERTIFICATE-----\n"
	if err := os.WriteFile(path, []byte(pem), 0o600); err != nil {
		t.Fatalf("writing test cert: %v", err)
	}

	cfg, err := validBuilder().CertificateFile(path).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	got, err := cfg.Certificate()
	if err != nil {
		t.Fatalf("Certificate() error: %v", err)
	}
	if got != pem {
		t.Errorf("Certificate() = %q, want %q", got, pem)
	}
}

func TestCustomHTTPRequestTimeout(t *testing.T) {
	cfg, err := validBuilder().HTTPRequestTimeout(45 * time.Second).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if cfg.HTTPRequestTimeout != 45*time.Second {
		t.Errorf("HTTPRequestTimeout = %v, want 45s", cfg.HTTPRequestTimeout)
	}
}
