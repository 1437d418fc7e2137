package auth

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leongj/azure-agents-cli/internal/config"
	"github.com/leongj/azure-agents-cli/internal/normalize"
)

// refreshMargin is how long before expiry a cached token is considered stale.
const refreshMargin = 5 * time.Minute

// Provider returns a bearer token for the project's data plane.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token, typically from AZA_TOKEN.
type Static string

func (s Static) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(s))
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// AzureCLI obtains tokens through `az account get-access-token` and caches
// them until shortly before they expire.
type AzureCLI struct {
	binary string
	scope  string
	run    commandRunner
	now    func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
}

func NewAzureCLI(binary, scope string) *AzureCLI {
	if strings.TrimSpace(binary) == "" {
		binary = "az"
	}
	if strings.TrimSpace(scope) == "" {
		scope = config.DefaultTokenScope
	}
	return &AzureCLI{
		binary: binary,
		scope:  scope,
		run:    runCommand,
		now:    time.Now,
	}
}

func (a *AzureCLI) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if a.cached != "" && now.Add(refreshMargin).Before(a.expires) {
		return a.cached, nil
	}

	output, err := a.run(ctx, a.binary, "account", "get-access-token", "--scope", a.scope, "--output", "json")
	if err != nil {
		return "", fmt.Errorf("acquire token via %s: %w", a.binary, err)
	}
	decoded, err := normalize.DecodeJSON(output)
	if err != nil {
		return "", fmt.Errorf("decode %s token output: %w", a.binary, err)
	}
	token, _ := normalize.Get(decoded, "accessToken", "").(string)
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%s returned no access token", a.binary)
	}

	a.cached = token
	a.expires = time.Time{}
	if expires, ok := parseExpiry(normalize.Get(decoded, "expires_on", nil)); ok {
		a.expires = expires
	}
	return token, nil
}

// FromConfig prefers a static token and falls back to the Azure CLI.
func FromConfig(cfg config.Config) Provider {
	if strings.TrimSpace(cfg.Token) != "" {
		return Static(cfg.Token)
	}
	return NewAzureCLI(cfg.AzureCLIBinary, cfg.TokenScope)
}

func parseExpiry(value any) (time.Time, bool) {
	if text, ok := value.(string); ok {
		seconds, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		value = seconds
	}
	return normalize.ParseTimestamp(value)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}
