package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	DefaultAPIVersion = "v1"
	DefaultTokenScope = "https://ai.azure.com/.default"
)

type Config struct {
	ProjectEndpoint string
	APIVersion      string

	Token          string
	TokenScope     string
	AzureCLIBinary string

	HTTPTimeoutSec int
	Concurrency    int
	PageSize       int
	Debug          bool

	TLSSkipVerify bool
	TLSCAFile     string
}

func FromEnv() Config {
	return Config{
		ProjectEndpoint: stringOrDefault("AZA_PROJECT", stringOrDefault("PROJECT_ENDPOINT", "")),
		APIVersion:      stringOrDefault("AZA_API_VERSION", DefaultAPIVersion),
		Token:           stringOrDefault("AZA_TOKEN", ""),
		TokenScope:      stringOrDefault("AZA_TOKEN_SCOPE", DefaultTokenScope),
		AzureCLIBinary:  stringOrDefault("AZA_AZ_BINARY", "az"),
		HTTPTimeoutSec:  intOrDefault("AZA_HTTP_TIMEOUT_SECONDS", 30),
		Concurrency:     intOrDefault("AZA_CONCURRENCY", 4),
		PageSize:        intOrDefault("AZA_PAGE_SIZE", 100),
		Debug:           boolOrDefault("AZA_DEBUG", false),
		TLSSkipVerify:   boolOrDefault("AZA_TLS_SKIP_VERIFY", false),
		TLSCAFile:       stringOrDefault("AZA_TLS_CA_FILE", ""),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
