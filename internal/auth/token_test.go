package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leongj/azure-agents-cli/internal/config"
)

func TestStaticToken(t *testing.T) {
	t.Parallel()

	token, err := Static(" abc ").Token(context.Background())
	if err != nil || token != "abc" {
		t.Fatalf("unexpected token %q err %v", token, err)
	}
	if _, err := Static("  ").Token(context.Background()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestAzureCLICachesUntilExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	calls := 0
	var gotArgs []string
	provider := NewAzureCLI("", "")
	provider.now = func() time.Time { return now }
	provider.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls++
		gotArgs = append([]string{name}, args...)
		return []byte(`{"accessToken":"tok-` + string(rune('0'+calls)) + `","expires_on":1700003600,"tokenType":"Bearer"}`), nil
	}

	first, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	if first != "tok-1" {
		t.Fatalf("unexpected token %q", first)
	}
	want := "az account get-access-token --scope " + config.DefaultTokenScope + " --output json"
	if strings.Join(gotArgs, " ") != want {
		t.Fatalf("unexpected command: %v", gotArgs)
	}

	now = now.Add(30 * time.Minute)
	if second, _ := provider.Token(context.Background()); second != "tok-1" || calls != 1 {
		t.Fatalf("expected cached token, got %q after %d calls", second, calls)
	}

	now = now.Add(26 * time.Minute)
	if third, _ := provider.Token(context.Background()); third != "tok-2" || calls != 2 {
		t.Fatalf("expected refresh inside the expiry margin, got %q after %d calls", third, calls)
	}
}

func TestAzureCLIStringExpiryAndFailures(t *testing.T) {
	t.Parallel()

	provider := NewAzureCLI("az-custom", "scope-x")
	provider.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`{"accessToken":"tok","expires_on":"1700003600"}`), nil
	}
	provider.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	if _, err := provider.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if !provider.expires.Equal(time.Unix(1_700_003_600, 0)) {
		t.Fatalf("unexpected expiry: %s", provider.expires)
	}

	failing := NewAzureCLI("az", "")
	failing.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: please run az login")
	}
	if _, err := failing.Token(context.Background()); err == nil || !strings.Contains(err.Error(), "az login") {
		t.Fatalf("expected az failure to surface, got %v", err)
	}

	empty := NewAzureCLI("az", "")
	empty.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`{"tokenType":"Bearer"}`), nil
	}
	if _, err := empty.Token(context.Background()); err == nil {
		t.Fatal("expected error for missing access token")
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	if _, ok := FromConfig(config.Config{Token: "t"}).(Static); !ok {
		t.Fatal("expected static provider when a token is configured")
	}
	if _, ok := FromConfig(config.Config{}).(*AzureCLI); !ok {
		t.Fatal("expected azure cli provider by default")
	}
}
