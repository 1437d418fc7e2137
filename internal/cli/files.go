package cli

import (
	"github.com/spf13/cobra"

	"github.com/leongj/azure-agents-cli/internal/output"
)

func newFilesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file"},
		Short:   "Manage uploaded files",
	}

	var list listFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List files",
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
			files, err := service.ListFiles(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			return printJSON(cmd, output.Envelope("files", files))
		},
	}
	list.register(listCmd.Flags())

	var raw bool
	showCmd := &cobra.Command{
		Use:   "show <file-id>",
		Short: "Show file metadata",
		Args:  exactArgs(1, "file id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := opts.service(raw)
			if err != nil {
				return err
			}
			file, err := service.GetFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, file)
		},
	}
	showCmd.Flags().BoolVar(&raw, "raw", false, "print the service record without rewriting")

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}
