package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"AZA_PROJECT",
		"PROJECT_ENDPOINT",
		"AZA_API_VERSION",
		"AZA_TOKEN",
		"AZA_TOKEN_SCOPE",
		"AZA_AZ_BINARY",
		"AZA_HTTP_TIMEOUT_SECONDS",
		"AZA_CONCURRENCY",
		"AZA_PAGE_SIZE",
		"AZA_DEBUG",
		"AZA_TLS_SKIP_VERIFY",
		"AZA_TLS_CA_FILE",
	} {
		t.Setenv(name, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	if cfg.ProjectEndpoint != "" {
		t.Fatalf("expected empty project endpoint, got %s", cfg.ProjectEndpoint)
	}
	if cfg.APIVersion != "v1" {
		t.Fatalf("expected default api version v1, got %s", cfg.APIVersion)
	}
	if cfg.TokenScope != DefaultTokenScope {
		t.Fatalf("unexpected default token scope: %s", cfg.TokenScope)
	}
	if cfg.AzureCLIBinary != "az" {
		t.Fatalf("expected default az binary, got %s", cfg.AzureCLIBinary)
	}
	if cfg.HTTPTimeoutSec != 30 {
		t.Fatalf("expected default timeout 30, got %d", cfg.HTTPTimeoutSec)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("expected default concurrency 4, got %d", cfg.Concurrency)
	}
	if cfg.PageSize != 100 {
		t.Fatalf("expected default page size 100, got %d", cfg.PageSize)
	}
	if cfg.Debug || cfg.TLSSkipVerify {
		t.Fatal("expected debug and tls skip verify to default off")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECT_ENDPOINT", "https://fallback.example.com/api/projects/p1")
	t.Setenv("AZA_PROJECT", " https://primary.example.com/api/projects/p2 ")
	t.Setenv("AZA_API_VERSION", "2025-05-15-preview")
	t.Setenv("AZA_TOKEN", "static-token")
	t.Setenv("AZA_HTTP_TIMEOUT_SECONDS", "45")
	t.Setenv("AZA_CONCURRENCY", "0")
	t.Setenv("AZA_PAGE_SIZE", "bogus")
	t.Setenv("AZA_DEBUG", "yes")

	cfg := FromEnv()
	if cfg.ProjectEndpoint != "https://primary.example.com/api/projects/p2" {
		t.Fatalf("unexpected project endpoint: %s", cfg.ProjectEndpoint)
	}
	if cfg.APIVersion != "2025-05-15-preview" {
		t.Fatalf("unexpected api version: %s", cfg.APIVersion)
	}
	if cfg.Token != "static-token" {
		t.Fatalf("unexpected token: %s", cfg.Token)
	}
	if cfg.HTTPTimeoutSec != 45 {
		t.Fatalf("expected timeout 45, got %d", cfg.HTTPTimeoutSec)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("expected invalid concurrency to fall back to 4, got %d", cfg.Concurrency)
	}
	if cfg.PageSize != 100 {
		t.Fatalf("expected invalid page size to fall back to 100, got %d", cfg.PageSize)
	}
	if !cfg.Debug {
		t.Fatal("expected debug on")
	}
}

func TestFromEnvProjectEndpointFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECT_ENDPOINT", "https://fallback.example.com/api/projects/p1")

	if got := FromEnv().ProjectEndpoint; got != "https://fallback.example.com/api/projects/p1" {
		t.Fatalf("expected PROJECT_ENDPOINT fallback, got %s", got)
	}
}
