package cli

import (
	"github.com/spf13/cobra"

	"github.com/leongj/azure-agents-cli/internal/output"
)

func newVectorStoresCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vector-stores",
		Aliases: []string{"vs", "vectorstores"},
		Short:   "Manage vector stores",
	}
	cmd.AddCommand(newVectorStoresListCommand(opts))
	cmd.AddCommand(newVectorStoreShowCommand(opts))
	cmd.AddCommand(newVectorStoreFilesCommand(opts))
	return cmd
}

func newVectorStoresListCommand(opts *rootOptions) *cobra.Command {
	var list listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vector stores",
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
			stores, err := service.ListVectorStores(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			return printJSON(cmd, output.Envelope("vector_stores", stores))
		},
	}
	list.register(cmd.Flags())
	return cmd
}

func newVectorStoreShowCommand(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <vector-store-id>",
		Short: "Show details for a vector store",
		Args:  exactArgs(1, "vector store id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := opts.service(raw)
			if err != nil {
				return err
			}
			store, err := service.GetVectorStore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, store)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the service record without rewriting")
	return cmd
}

func newVectorStoreFilesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect files attached to a vector store",
	}

	var list listFlags
	listCmd := &cobra.Command{
		Use:   "list <vector-store-id>",
		Short: "List files in a vector store",
		Args:  exactArgs(1, "vector store id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts, err := list.options()
			if err != nil {
				return err
			}
			service, err := opts.service(list.raw)
			if err != nil {
				return err
			}
			files, err := service.ListVectorStoreFiles(cmd.Context(), args[0], listOpts)
			if err != nil {
				return err
			}
			return printJSON(cmd, output.Envelope("files", files))
		},
	}
	list.register(listCmd.Flags())

	var raw bool
	showCmd := &cobra.Command{
		Use:   "show <vector-store-id> <file-id>",
		Short: "Show a file attached to a vector store",
		Args:  exactArgs(2, "vector store id", "file id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := opts.service(raw)
			if err != nil {
				return err
			}
			file, err := service.GetVectorStoreFile(cmd.Context(), args[0], args[1])
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
