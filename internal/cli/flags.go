package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/leongj/azure-agents-cli/internal/apierr"
	"github.com/leongj/azure-agents-cli/internal/projectclient"
)

// listFlags are the paging and rendering flags shared by list commands.
type listFlags struct {
	limit  int
	order  string
	after  string
	before string
	raw    bool
}

func (l *listFlags) register(flags *pflag.FlagSet) {
	flags.IntVar(&l.limit, "limit", 0, "maximum items to return (default: every page)")
	flags.StringVar(&l.order, "order", "", "sort by created_at: asc or desc")
	flags.StringVar(&l.after, "after", "", "cursor: list items after this id")
	flags.StringVar(&l.before, "before", "", "cursor: list items before this id")
	flags.BoolVar(&l.raw, "raw", false, "print service records without timestamp or tool_resources rewriting")
}

func (l *listFlags) options() (projectclient.ListOptions, error) {
	order := strings.ToLower(strings.TrimSpace(l.order))
	if order != "" && order != "asc" && order != "desc" {
		return projectclient.ListOptions{}, apierr.Usagef("invalid --order %q: expected asc or desc", l.order)
	}
	if l.limit < 0 {
		return projectclient.ListOptions{}, apierr.Usagef("invalid --limit %d", l.limit)
	}
	return projectclient.ListOptions{
		Limit:  l.limit,
		Order:  order,
		After:  strings.TrimSpace(l.after),
		Before: strings.TrimSpace(l.before),
	}, nil
}
