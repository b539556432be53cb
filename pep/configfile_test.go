package pep

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Endpoint.URL != "" {
		t.Fatalf("expected empty endpoint URL, got %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.Timeout != defaultOptions().EndpointTimeout {
		t.Fatalf("expected default timeout, got %v", cfg.Endpoint.Timeout)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pep.yaml")
	const body = `
endpoint:
  url: https://pdp.example.org:8154/authz
  timeout: 10s
  ssl_validation: false
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Endpoint.URL != "https://pdp.example.org:8154/authz" {
		t.Fatalf("unexpected endpoint URL: %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.SSLValidation {
		t.Fatal("expected ssl_validation false")
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("expected at least one option")
	}
}

func TestLoadConfigMissingURLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pep.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing endpoint.url")
	}
}

func TestFileConfigUnknownCipherRejected(t *testing.T) {
	cfg := defaultConfig()
	cfg.Endpoint.URL = "https://pdp.example.org/authz"
	cfg.Endpoint.SSLCipherList = []string{"TLS_NOT_A_REAL_SUITE"}
	if _, err := cfg.Options(); err == nil {
		t.Fatal("expected error for unknown cipher suite")
	}
}
