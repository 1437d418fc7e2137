package projectclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leongj/azure-agents-cli/internal/apierr"
	"github.com/leongj/azure-agents-cli/internal/auth"
	"github.com/leongj/azure-agents-cli/internal/config"
	"github.com/leongj/azure-agents-cli/internal/normalize"
)

const (
	maxResponseBytes = 32 << 20
	maxErrorBody     = 512
	maxPages         = 1000
)

// Client talks to the agents endpoints of one project. Responses are decoded
// with normalize.DecodeJSON so field order is kept; objects come back as
// *normalize.Map.
type Client struct {
	baseURL    string
	baseQuery  url.Values
	apiVersion string
	pageSize   int
	tokens     auth.Provider
	http       *http.Client
	logger     *slog.Logger
}

// ListOptions mirrors the service's cursor paging parameters. A zero Limit
// means every page is fetched.
type ListOptions struct {
	Limit  int
	Order  string
	After  string
	Before string
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Code       string
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("HTTP %s: %s", e.Status, e.Body)
	default:
		return "HTTP " + e.Status
	}
}

func New(cfg config.Config, tokens auth.Provider, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.ProjectEndpoint)
	if endpoint == "" {
		return nil, apierr.Usagef("--project-uri not provided and AZA_PROJECT or PROJECT_ENDPOINT env var not set")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return nil, apierr.Usagef("invalid project endpoint %q", endpoint)
	}
	if tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLSSkipVerify,
	}
	if cfg.TLSCAFile != "" {
		caBytes, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read tls ca file: %w", err)
		}
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM(caBytes); !ok {
			return nil, fmt.Errorf("parse tls ca file")
		}
		tlsConfig.RootCAs = certPool
	}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 30 * time.Second
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = config.DefaultAPIVersion
	}

	baseQuery := parsed.Query()
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		baseQuery:  baseQuery,
		apiVersion: apiVersion,
		pageSize:   cfg.PageSize,
		tokens:     tokens,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: tlsConfig,
			},
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	if timeout < time.Second {
		return c
	}
	clone := *c
	if c.http == nil {
		clone.http = &http.Client{Timeout: timeout}
		return &clone
	}
	httpClone := *c.http
	httpClone.Timeout = timeout
	clone.http = &httpClone
	return &clone
}

func (c *Client) ListAgents(ctx context.Context, opts ListOptions) ([]any, error) {
	return c.list(ctx, "assistants", opts, "assistants", "agents")
}

func (c *Client) ListThreads(ctx context.Context, opts ListOptions) ([]any, error) {
	return c.list(ctx, "threads", opts, "threads")
}

func (c *Client) GetThread(ctx context.Context, threadID string) (any, error) {
	return c.getJSON(ctx, join("threads", threadID), nil)
}

func (c *Client) ListRuns(ctx context.Context, threadID string, opts ListOptions) ([]any, error) {
	return c.list(ctx, join("threads", threadID, "runs"), opts, "runs")
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (any, error) {
	return c.getJSON(ctx, join("threads", threadID, "runs", runID), nil)
}

func (c *Client) ListVectorStores(ctx context.Context, opts ListOptions) ([]any, error) {
	return c.list(ctx, "vector_stores", opts, "vector_stores")
}

func (c *Client) GetVectorStore(ctx context.Context, vectorStoreID string) (any, error) {
	return c.getJSON(ctx, join("vector_stores", vectorStoreID), nil)
}

func (c *Client) ListVectorStoreFiles(ctx context.Context, vectorStoreID string, opts ListOptions) ([]any, error) {
	return c.list(ctx, join("vector_stores", vectorStoreID, "files"), opts, "files")
}

func (c *Client) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (any, error) {
	return c.getJSON(ctx, join("vector_stores", vectorStoreID, "files", fileID), nil)
}

func (c *Client) ListFiles(ctx context.Context, opts ListOptions) ([]any, error) {
	return c.list(ctx, "files", opts, "files")
}

func (c *Client) GetFile(ctx context.Context, fileID string) (any, error) {
	return c.getJSON(ctx, join("files", fileID), nil)
}

// list follows has_more/last_id cursors until the listing is exhausted,
// unless the caller asked for a bounded page.
func (c *Client) list(ctx context.Context, path string, opts ListOptions, envelopeKeys ...string) ([]any, error) {
	query := url.Values{}
	if order := strings.TrimSpace(opts.Order); order != "" {
		query.Set("order", order)
	}
	if before := strings.TrimSpace(opts.Before); before != "" {
		query.Set("before", before)
	}
	paginate := opts.Limit <= 0 && query.Get("before") == ""
	limit := opts.Limit
	if limit <= 0 {
		limit = c.pageSize
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	after := strings.TrimSpace(opts.After)
	seen := map[string]bool{}
	items := []any{}
	for page := 0; page < maxPages; page++ {
		if after != "" {
			query.Set("after", after)
		}
		body, err := c.getJSON(ctx, path, query)
		if err != nil {
			return nil, err
		}
		pageItems := listItems(body, envelopeKeys)
		items = append(items, pageItems...)
		if !paginate {
			break
		}
		next := nextCursor(body, pageItems)
		if next == "" || seen[next] {
			break
		}
		seen[next] = true
		after = next
	}
	return items, nil
}

func nextCursor(body any, pageItems []any) string {
	if more, _ := normalize.Get(body, "has_more", false).(bool); !more || len(pageItems) == 0 {
		return ""
	}
	if lastID, _ := normalize.Get(body, "last_id", "").(string); strings.TrimSpace(lastID) != "" {
		return lastID
	}
	lastID, _ := normalize.Get(pageItems[len(pageItems)-1], "id", "").(string)
	return strings.TrimSpace(lastID)
}

// listItems tolerates the envelope shapes seen across service versions.
func listItems(body any, envelopeKeys []string) []any {
	if items, ok := body.([]any); ok {
		return items
	}
	keys := append([]string{"data"}, envelopeKeys...)
	keys = append(keys, "items")
	for _, key := range keys {
		if items, ok := normalize.Get(body, key, nil).([]any); ok {
			return items
		}
	}
	return []any{}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (any, error) {
	merged := url.Values{}
	for key, values := range c.baseQuery {
		merged[key] = append([]string(nil), values...)
	}
	for key, values := range query {
		merged[key] = append([]string(nil), values...)
	}
	if merged.Get("api-version") == "" {
		merged.Set("api-version", c.apiVersion)
	}
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire bearer token: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-ms-client-request-id", requestID)

	c.logger.Debug("http request", "method", req.Method, "url", endpoint, "request_id", requestID)
	return c.doJSON(req, requestID)
}

func (c *Client) doJSON(req *http.Request, requestID string) (any, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("http response", "status", res.StatusCode, "request_id", requestID, "bytes", len(body))

	if res.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(res, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	decoded, err := normalize.DecodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func newStatusError(res *http.Response, body []byte) *StatusError {
	statusErr := &StatusError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
	}
	decoded, err := normalize.DecodeJSON(body)
	if err != nil {
		return statusErr
	}
	switch detail := normalize.Get(decoded, "error", nil).(type) {
	case string:
		statusErr.Message = strings.TrimSpace(detail)
	case nil:
		statusErr.Message, _ = normalize.Get(decoded, "message", "").(string)
	default:
		statusErr.Code, _ = normalize.Get(detail, "code", "").(string)
		statusErr.Message, _ = normalize.Get(detail, "message", "").(string)
	}
	return statusErr
}

func join(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(strings.TrimSpace(segment)))
	}
	return strings.Join(escaped, "/")
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
