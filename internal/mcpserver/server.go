package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leongj/azure-agents-cli/internal/output"
	"github.com/leongj/azure-agents-cli/internal/projectclient"
)

const serverName = "aza"

// Backend is the subset of agents.Service exposed as tools.
type Backend interface {
	ListAgents(ctx context.Context, opts projectclient.ListOptions, full bool) ([]any, error)
	ListThreads(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
	GetThread(ctx context.Context, threadID string) (any, error)
	ListRuns(ctx context.Context, threadIDs []string, opts projectclient.ListOptions) ([]any, error)
	GetRun(ctx context.Context, threadID, runID string) (any, error)
	ListVectorStores(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
	ListFiles(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
}

type listArgs struct {
	Limit  int    `json:"limit"`
	Order  string `json:"order"`
	After  string `json:"after"`
	Before string `json:"before"`
	Full   bool   `json:"full"`
}

func (a listArgs) options() projectclient.ListOptions {
	return projectclient.ListOptions{Limit: a.Limit, Order: a.Order, After: a.After, Before: a.Before}
}

type threadArgs struct {
	ThreadID  string   `json:"thread_id"`
	ThreadIDs []string `json:"thread_ids"`
	RunID     string   `json:"run_id"`
	listArgs
}

// New builds an MCP server whose tools return the same JSON the CLI prints.
func New(backend Backend, version string) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: serverName, Version: version}, nil)

	server.AddTool(&sdkmcp.Tool{
		Name:        "list_agents",
		Description: "List agents in the project. Summaries carry id, name and status unless full is set.",
		InputSchema: listSchema(map[string]any{
			"full": map[string]any{"type": "boolean", "description": "Return complete agent records"},
		}),
	}, listTool("agents", func(ctx context.Context, args listArgs) ([]any, error) {
		return backend.ListAgents(ctx, args.options(), args.Full)
	}))

	server.AddTool(&sdkmcp.Tool{
		Name:        "list_threads",
		Description: "List conversation threads.",
		InputSchema: listSchema(nil),
	}, listTool("threads", func(ctx context.Context, args listArgs) ([]any, error) {
		return backend.ListThreads(ctx, args.options())
	}))

	server.AddTool(&sdkmcp.Tool{
		Name:        "get_thread",
		Description: "Get one thread by id.",
		InputSchema: objectSchema(map[string]any{
			"thread_id": map[string]any{"type": "string"},
		}, "thread_id"),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args threadArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err), nil
		}
		thread, err := backend.GetThread(ctx, args.ThreadID)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(thread), nil
	})

	server.AddTool(&sdkmcp.Tool{
		Name:        "list_runs",
		Description: "List runs for one or more threads.",
		InputSchema: listSchema(map[string]any{
			"thread_id":  map[string]any{"type": "string"},
			"thread_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args threadArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err), nil
		}
		threadIDs := append([]string(nil), args.ThreadIDs...)
		if strings.TrimSpace(args.ThreadID) != "" {
			threadIDs = append([]string{args.ThreadID}, threadIDs...)
		}
		runs, err := backend.ListRuns(ctx, threadIDs, args.options())
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(output.Envelope("runs", runs)), nil
	})

	server.AddTool(&sdkmcp.Tool{
		Name:        "get_run",
		Description: "Get one run of a thread.",
		InputSchema: objectSchema(map[string]any{
			"thread_id": map[string]any{"type": "string"},
			"run_id":    map[string]any{"type": "string"},
		}, "thread_id", "run_id"),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args threadArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err), nil
		}
		run, err := backend.GetRun(ctx, args.ThreadID, args.RunID)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(run), nil
	})

	server.AddTool(&sdkmcp.Tool{
		Name:        "list_vector_stores",
		Description: "List vector stores.",
		InputSchema: listSchema(nil),
	}, listTool("vector_stores", func(ctx context.Context, args listArgs) ([]any, error) {
		return backend.ListVectorStores(ctx, args.options())
	}))

	server.AddTool(&sdkmcp.Tool{
		Name:        "list_files",
		Description: "List uploaded files.",
		InputSchema: listSchema(nil),
	}, listTool("files", func(ctx context.Context, args listArgs) ([]any, error) {
		return backend.ListFiles(ctx, args.options())
	}))

	return server
}

func listTool(key string, list func(context.Context, listArgs) ([]any, error)) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args listArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err), nil
		}
		records, err := list(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(output.Envelope(key, records)), nil
	}
}

func listSchema(extra map[string]any) map[string]any {
	properties := map[string]any{
		"limit":  map[string]any{"type": "integer", "description": "Maximum items; omit to fetch every page"},
		"order":  map[string]any{"type": "string", "enum": []string{"asc", "desc"}},
		"after":  map[string]any{"type": "string"},
		"before": map[string]any{"type": "string"},
	}
	for key, value := range extra {
		properties[key] = value
	}
	return objectSchema(properties)
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func decodeArgs(req *sdkmcp.CallToolRequest, target any) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(value any) *sdkmcp.CallToolResult {
	payload, err := output.Marshal(value)
	if err != nil {
		return errorResult(err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(payload)}},
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: err.Error()}},
	}
}
