package cli

import (
	"github.com/spf13/cobra"

	"github.com/leongj/azure-agents-cli/internal/output"
)

func newThreadsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "threads",
		Aliases: []string{"thread"},
		Short:   "Manage threads",
	}
	cmd.AddCommand(newThreadsListCommand(opts))
	cmd.AddCommand(newThreadShowCommand(opts))
	cmd.AddCommand(newRunsCommand(opts))
	return cmd
}

func newThreadsListCommand(opts *rootOptions) *cobra.Command {
	var list listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List threads",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts, err := list.options()
			if err != nil {
				return err
			}
			service, err := opts.service(list.raw)
			if err != nil {
				return err
			}
			threads, err := service.ListThreads(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			return printJSON(cmd, output.Envelope("threads", threads))
		},
	}
	list.register(cmd.Flags())
	return cmd
}

func newThreadShowCommand(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Show details for a thread",
		Args:  exactArgs(1, "thread id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := opts.service(raw)
			if err != nil {
				return err
			}
			thread, err := service.GetThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, thread)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the service record without rewriting")
	return cmd
}
