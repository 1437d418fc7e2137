package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leongj/azure-agents-cli/internal/normalize"
	"github.com/leongj/azure-agents-cli/internal/projectclient"
)

type fakeBackend struct {
	lastOpts    projectclient.ListOptions
	lastFull    bool
	lastThreads []string
}

func record(pairs ...any) *normalize.Map {
	m := normalize.NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1])
	}
	return m
}

func (f *fakeBackend) ListAgents(_ context.Context, opts projectclient.ListOptions, full bool) ([]any, error) {
	f.lastOpts, f.lastFull = opts, full
	return []any{record("id", "asst_1", "name", "helper", "status", nil)}, nil
}

func (f *fakeBackend) ListThreads(_ context.Context, opts projectclient.ListOptions) ([]any, error) {
	f.lastOpts = opts
	return []any{record("id", "thread_1", "created_at", "2024-01-01T00:00:00Z")}, nil
}

func (f *fakeBackend) GetThread(_ context.Context, threadID string) (any, error) {
	if threadID != "thread_1" {
		return nil, errors.New("error retrieving thread '" + threadID + "': HTTP 404: not found")
	}
	return record("id", "thread_1", "tool_resources", record("file_search", record("vector_store_ids", []any{"vs_1"}))), nil
}

func (f *fakeBackend) ListRuns(_ context.Context, threadIDs []string, opts projectclient.ListOptions) ([]any, error) {
	f.lastThreads, f.lastOpts = threadIDs, opts
	runs := []any{}
	for _, id := range threadIDs {
		runs = append(runs, record("id", "run_"+id, "thread_id", id))
	}
	return runs, nil
}

func (f *fakeBackend) GetRun(_ context.Context, threadID, runID string) (any, error) {
	return record("id", runID, "thread_id", threadID, "status", "completed"), nil
}

func (f *fakeBackend) ListVectorStores(context.Context, projectclient.ListOptions) ([]any, error) {
	return []any{record("id", "vs_1")}, nil
}

func (f *fakeBackend) ListFiles(context.Context, projectclient.ListOptions) ([]any, error) {
	return nil, nil
}

func connect(t *testing.T, backend Backend) *sdkmcp.ClientSession {
	t.Helper()
	server := New(backend, "test")
	handler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
	httpServer := httptest.NewServer(handler)
	t.Cleanup(httpServer.Close)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "aza-test", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   httpServer.URL,
		HTTPClient: httpServer.Client(),
	}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("call %s: empty content", name)
	}
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("call %s: unexpected content %T", name, result.Content[0])
	}
	return text.Text, result.IsError
}

func TestServerListsTools(t *testing.T) {
	session := connect(t, &fakeBackend{})

	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := "get_run,get_thread,list_agents,list_files,list_runs,list_threads,list_vector_stores"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("expected tools %s, got %s", want, got)
	}
}

func TestServerToolResults(t *testing.T) {
	backend := &fakeBackend{}
	session := connect(t, backend)

	text, isError := callText(t, session, "list_agents", map[string]any{"limit": 5, "order": "asc", "full": true})
	if isError || !strings.Contains(text, `"agents": [`) || !strings.Contains(text, `"name": "helper"`) {
		t.Fatalf("unexpected list_agents result: %s", text)
	}
	if backend.lastOpts.Limit != 5 || backend.lastOpts.Order != "asc" || !backend.lastFull {
		t.Fatalf("expected arguments forwarded, got %+v full=%v", backend.lastOpts, backend.lastFull)
	}

	text, isError = callText(t, session, "get_thread", map[string]any{"thread_id": "thread_1"})
	if isError || !strings.Contains(text, `"vector_store_ids": [`) {
		t.Fatalf("unexpected get_thread result: %s", text)
	}

	text, isError = callText(t, session, "list_runs", map[string]any{"thread_id": "a", "thread_ids": []string{"b", "c"}})
	if isError || !strings.Contains(text, `"runs": [`) || strings.Join(backend.lastThreads, ",") != "a,b,c" {
		t.Fatalf("unexpected list_runs result: %s (threads %v)", text, backend.lastThreads)
	}

	text, isError = callText(t, session, "get_run", map[string]any{"thread_id": "a", "run_id": "run_1"})
	if isError || !strings.Contains(text, `"status": "completed"`) {
		t.Fatalf("unexpected get_run result: %s", text)
	}

	text, isError = callText(t, session, "list_files", map[string]any{})
	if isError || !strings.Contains(text, `"files": []`) {
		t.Fatalf("unexpected list_files result: %s", text)
	}
}

func TestServerReportsToolErrors(t *testing.T) {
	session := connect(t, &fakeBackend{})

	text, isError := callText(t, session, "get_thread", map[string]any{"thread_id": "thread_x"})
	if !isError || !strings.Contains(text, "error retrieving thread 'thread_x'") {
		t.Fatalf("expected tool error, got %v: %s", isError, text)
	}
}
