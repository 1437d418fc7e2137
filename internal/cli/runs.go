package cli

import (
	"github.com/spf13/cobra"

	"github.com/leongj/azure-agents-cli/internal/output"
)

// newRunsCommand is mounted both as "threads runs" and as top-level "runs".
func newRunsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"run"},
		Short:   "Manage runs (thread executions)",
	}
	cmd.AddCommand(newRunsListCommand(opts))
	cmd.AddCommand(newRunShowCommand(opts))
	return cmd
}

func newRunsListCommand(opts *rootOptions) *cobra.Command {
	var list listFlags
	cmd := &cobra.Command{
		Use:   "list <thread-id> [thread-id...]",
		Short: "List runs for one or more threads",
		Args:  minimumArgs(1, "thread-id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts, err := list.options()
			if err != nil {
				return err
			}
			service, err := opts.service(list.raw)
			if err != nil {
				return err
			}
			runs, err := service.ListRuns(cmd.Context(), args, listOpts)
			if err != nil {
				return err
			}
			return printJSON(cmd, output.Envelope("runs", runs))
		},
	}
	list.register(cmd.Flags())
	return cmd
}

func newRunShowCommand(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <thread-id> <run-id>",
		Short: "Show details for a run",
		Args:  exactArgs(2, "thread id", "run id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := opts.service(raw)
			if err != nil {
				return err
			}
			run, err := service.GetRun(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, run)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the service record without rewriting")
	return cmd
}
