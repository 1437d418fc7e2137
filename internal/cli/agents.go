package cli

import (
	"github.com/spf13/cobra"

	"github.com/leongj/azure-agents-cli/internal/output"
)

func newAgentsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agents",
		Aliases: []string{"agent"},
		Short:   "Manage agents",
	}
	cmd.AddCommand(newAgentsListCommand(opts))
	return cmd
}

func newAgentsListCommand(opts *rootOptions) *cobra.Command {
	var (
		list listFlags
		full bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents as {id, name, status} summaries",
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
			records, err := service.ListAgents(cmd.Context(), listOpts, full)
			if err != nil {
				return err
			}
			return printJSON(cmd, output.Envelope("agents", records))
		},
	}
	list.register(cmd.Flags())
	cmd.Flags().BoolVar(&full, "full", false, "print complete agent records instead of summaries")
	return cmd
}
