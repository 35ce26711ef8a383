package config

import (
	"os"
	"testing"
)

func TestLoadRequiresHostAndTenant(t *testing.T) {
	os.Clearenv()
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail without MINDCONNECT_HOST/MINDCONNECT_TENANT set")
	}
}

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("MINDCONNECT_HOST", "https://southgate.eu1.mindsphere.io")
	t.Setenv("MINDCONNECT_TENANT", "br-smk1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		name   string
		check  bool
		expect string
	}{
		{"default security profile", cfg.SecurityProfile == "SharedSecret", "SharedSecret"},
		{"default user agent", cfg.UserAgent == "mindconnect-agent-go", "mindconnect-agent-go"},
		{"default request timeout", cfg.RequestTimeoutSeconds == 300, "300"},
		{"default log level", cfg.LogLevel == "info", "info"},
		{"default log format", cfg.LogFormat == "json", "json"},
		{"default metrics path", cfg.MetricsPath == "/metrics", "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check {
				t.Errorf("expected %s", tt.expect)
			}
		})
	}
}
