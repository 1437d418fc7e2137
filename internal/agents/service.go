package agents

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leongj/azure-agents-cli/internal/apierr"
	"github.com/leongj/azure-agents-cli/internal/normalize"
	"github.com/leongj/azure-agents-cli/internal/projectclient"
)

// Source is the remote side of the service. *projectclient.Client satisfies it.
type Source interface {
	ListAgents(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
	ListThreads(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
	GetThread(ctx context.Context, threadID string) (any, error)
	ListRuns(ctx context.Context, threadID string, opts projectclient.ListOptions) ([]any, error)
	GetRun(ctx context.Context, threadID, runID string) (any, error)
	ListVectorStores(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
	GetVectorStore(ctx context.Context, vectorStoreID string) (any, error)
	ListVectorStoreFiles(ctx context.Context, vectorStoreID string, opts projectclient.ListOptions) ([]any, error)
	GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (any, error)
	ListFiles(ctx context.Context, opts projectclient.ListOptions) ([]any, error)
	GetFile(ctx context.Context, fileID string) (any, error)
}

type Options struct {
	// Concurrency bounds parallel per-thread run listings.
	Concurrency int
	// Raw skips entity serialization; records are still made JSON-safe.
	Raw bool
}

// Service turns remote objects into JSON-ready records.
type Service struct {
	source      Source
	concurrency int
	raw         bool
}

func NewService(source Source, opts Options) *Service {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		source:      source,
		concurrency: concurrency,
		raw:         opts.Raw,
	}
}

// ListAgents returns {id, name, status} summaries, or full records when full
// is set. A missing name falls back to the id.
func (s *Service) ListAgents(ctx context.Context, opts projectclient.ListOptions, full bool) ([]any, error) {
	items, err := s.source.ListAgents(ctx, opts)
	if err != nil {
		return nil, apierr.Wrap("error listing agents", err)
	}
	records := make([]any, 0, len(items))
	for _, item := range items {
		switch {
		case s.raw:
			records = append(records, normalize.ToJSONSafe(item))
		case full:
			records = append(records, normalize.SerializeEntity(item))
		default:
			records = append(records, agentSummary(item))
		}
	}
	return records, nil
}

func agentSummary(item any) *normalize.Map {
	id := normalize.Get(item, "id", nil)
	name := normalize.Get(item, "name", nil)
	if text, ok := name.(string); name == nil || (ok && strings.TrimSpace(text) == "") {
		name = id
	}
	summary := normalize.NewMap()
	summary.Set("id", id)
	summary.Set("name", name)
	summary.Set("status", normalize.Get(item, "status", nil))
	if safe, ok := normalize.ToJSONSafe(summary).(*normalize.Map); ok {
		return safe
	}
	return summary
}

func (s *Service) ListThreads(ctx context.Context, opts projectclient.ListOptions) ([]any, error) {
	items, err := s.source.ListThreads(ctx, opts)
	if err != nil {
		return nil, apierr.Wrap("error listing threads", err)
	}
	return s.serializeAll(items, normalize.SerializeThread), nil
}

func (s *Service) GetThread(ctx context.Context, threadID string) (any, error) {
	threadID, err := requireID("thread id", threadID)
	if err != nil {
		return nil, err
	}
	thread, err := s.source.GetThread(ctx, threadID)
	if err != nil {
		return nil, apierr.Wrap(fmt.Sprintf("error retrieving thread '%s'", threadID), err)
	}
	return s.serialize(thread, normalize.SerializeThread), nil
}

// ListRuns lists runs for each thread in parallel. Results keep the order of
// threadIDs; the first failure cancels the remaining listings.
func (s *Service) ListRuns(ctx context.Context, threadIDs []string, opts projectclient.ListOptions) ([]any, error) {
	ids := make([]string, 0, len(threadIDs))
	for _, raw := range threadIDs {
		id, err := requireID("thread id", raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apierr.Usagef("at least one thread id is required")
	}

	perThread := make([][]any, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, id := range ids {
		index, threadID := i, id
		group.Go(func() error {
			items, err := s.source.ListRuns(groupCtx, threadID, opts)
			if err != nil {
				return apierr.Wrap(fmt.Sprintf("error listing runs for thread '%s'", threadID), err)
			}
			perThread[index] = s.serializeAll(items, normalize.SerializeRun)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	runs := []any{}
	for _, items := range perThread {
		runs = append(runs, items...)
	}
	return runs, nil
}

func (s *Service) GetRun(ctx context.Context, threadID, runID string) (any, error) {
	threadID, err := requireID("thread id", threadID)
	if err != nil {
		return nil, err
	}
	runID, err = requireID("run id", runID)
	if err != nil {
		return nil, err
	}
	run, err := s.source.GetRun(ctx, threadID, runID)
	if err != nil {
		return nil, apierr.Wrap(fmt.Sprintf("error retrieving run '%s' in thread '%s'", runID, threadID), err)
	}
	return s.serialize(run, normalize.SerializeRun), nil
}

func (s *Service) ListVectorStores(ctx context.Context, opts projectclient.ListOptions) ([]any, error) {
	items, err := s.source.ListVectorStores(ctx, opts)
	if err != nil {
		return nil, apierr.Wrap("error listing vector stores", err)
	}
	return s.serializeAll(items, normalize.SerializeEntity), nil
}

func (s *Service) GetVectorStore(ctx context.Context, vectorStoreID string) (any, error) {
	vectorStoreID, err := requireID("vector store id", vectorStoreID)
	if err != nil {
		return nil, err
	}
	store, err := s.source.GetVectorStore(ctx, vectorStoreID)
	if err != nil {
		return nil, apierr.Wrap(fmt.Sprintf("error retrieving vector store '%s'", vectorStoreID), err)
	}
	return s.serialize(store, normalize.SerializeEntity), nil
}

func (s *Service) ListVectorStoreFiles(ctx context.Context, vectorStoreID string, opts projectclient.ListOptions) ([]any, error) {
	vectorStoreID, err := requireID("vector store id", vectorStoreID)
	if err != nil {
		return nil, err
	}
	items, err := s.source.ListVectorStoreFiles(ctx, vectorStoreID, opts)
	if err != nil {
		return nil, apierr.Wrap(fmt.Sprintf("error listing files for vector store '%s'", vectorStoreID), err)
	}
	return s.serializeAll(items, normalize.SerializeEntity), nil
}

func (s *Service) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (any, error) {
	vectorStoreID, err := requireID("vector store id", vectorStoreID)
	if err != nil {
		return nil, err
	}
	fileID, err = requireID("file id", fileID)
	if err != nil {
		return nil, err
	}
	file, err := s.source.GetVectorStoreFile(ctx, vectorStoreID, fileID)
	if err != nil {
		return nil, apierr.Wrap(fmt.Sprintf("error retrieving file '%s' in vector store '%s'", fileID, vectorStoreID), err)
	}
	return s.serialize(file, normalize.SerializeEntity), nil
}

func (s *Service) ListFiles(ctx context.Context, opts projectclient.ListOptions) ([]any, error) {
	items, err := s.source.ListFiles(ctx, opts)
	if err != nil {
		return nil, apierr.Wrap("error listing files", err)
	}
	return s.serializeAll(items, normalize.SerializeEntity), nil
}

func (s *Service) GetFile(ctx context.Context, fileID string) (any, error) {
	fileID, err := requireID("file id", fileID)
	if err != nil {
		return nil, err
	}
	file, err := s.source.GetFile(ctx, fileID)
	if err != nil {
		return nil, apierr.Wrap(fmt.Sprintf("error retrieving file '%s'", fileID), err)
	}
	return s.serialize(file, normalize.SerializeEntity), nil
}

func (s *Service) serialize(obj any, serializer func(any) *normalize.Map) any {
	if s.raw {
		return normalize.ToJSONSafe(obj)
	}
	return serializer(obj)
}

func (s *Service) serializeAll(items []any, serializer func(any) *normalize.Map) []any {
	records := make([]any, 0, len(items))
	for _, item := range items {
		records = append(records, s.serialize(item, serializer))
	}
	return records
}

func requireID(label, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apierr.Usagef("%s is required", label)
	}
	return trimmed, nil
}
