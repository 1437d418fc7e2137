package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leongj/azure-agents-cli/internal/agents"
	"github.com/leongj/azure-agents-cli/internal/apierr"
	"github.com/leongj/azure-agents-cli/internal/auth"
	"github.com/leongj/azure-agents-cli/internal/config"
	"github.com/leongj/azure-agents-cli/internal/output"
	"github.com/leongj/azure-agents-cli/internal/projectclient"
)

const version = "0.1.0"

const (
	exitFailure = 1
	exitUsage   = 2
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logger *slog.Logger
	level  *slog.LevelVar

	projectURI   string
	apiVersion   string
	debug        bool
	timeoutSec   int
	outputFormat string
}

func NewRoot(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := &rootOptions{logger: logger, level: level}

	root := &cobra.Command{
		Use:           "aza",
		Short:         "Azure agents CLI: inspect agents, threads, runs, vector stores and files as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if format := strings.ToLower(strings.TrimSpace(opts.outputFormat)); format != "" && format != "json" {
				return apierr.Usagef("unsupported output format %q (only json)", opts.outputFormat)
			}
			if opts.level != nil && (opts.debug || config.FromEnv().Debug) {
				opts.level.Set(slog.LevelDebug)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.projectURI, "project-uri", "p", "", "project endpoint (defaults to AZA_PROJECT or PROJECT_ENDPOINT)")
	flags.StringVar(&opts.apiVersion, "api-version", "", "data-plane api-version query parameter (defaults to AZA_API_VERSION or v1)")
	flags.BoolVar(&opts.debug, "debug", false, "log HTTP traffic to stderr")
	flags.IntVar(&opts.timeoutSec, "timeout-sec", 0, "per-request timeout in seconds (defaults to AZA_HTTP_TIMEOUT_SECONDS)")
	flags.StringVarP(&opts.outputFormat, "output", "o", "json", "output format: json (only)")
	root.SetGlobalNormalizationFunc(flagAliases)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apierr.Usagef("%v", err)
	})

	root.AddCommand(newAgentsCommand(opts))
	root.AddCommand(newThreadsCommand(opts))
	root.AddCommand(newRunsCommand(opts))
	root.AddCommand(newVectorStoresCommand(opts))
	root.AddCommand(newFilesCommand(opts))
	root.AddCommand(newMCPCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}

func flagAliases(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "project":
		name = "project-uri"
	case "timeout":
		name = "timeout-sec"
	}
	return pflag.NormalizedName(name)
}

// config layers flag overrides on top of the environment.
func (o *rootOptions) config() config.Config {
	cfg := config.FromEnv()
	if value := strings.TrimSpace(o.projectURI); value != "" {
		cfg.ProjectEndpoint = value
	}
	if value := strings.TrimSpace(o.apiVersion); value != "" {
		cfg.APIVersion = value
	}
	if o.timeoutSec > 0 {
		cfg.HTTPTimeoutSec = o.timeoutSec
	}
	if o.debug {
		cfg.Debug = true
	}
	return cfg
}

func (o *rootOptions) service(raw bool) (*agents.Service, error) {
	cfg := o.config()
	client, err := projectclient.New(cfg, auth.FromConfig(cfg), o.logger)
	if err != nil {
		return nil, err
	}
	return agents.NewService(client, agents.Options{
		Concurrency: cfg.Concurrency,
		Raw:         raw,
	}), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}

// Report prints err as an "Error:" line and returns the process exit code.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	output.WriteError(w, err)
	if errors.Is(err, apierr.ErrUsage) {
		return exitUsage
	}
	return exitFailure
}

// exactArgs is cobra.ExactArgs with a usage-classified error.
func exactArgs(n int, names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == n {
			return nil
		}
		if len(names) == n && len(args) < n {
			return apierr.Usagef("missing argument <%s>", strings.ReplaceAll(names[len(args)], " ", "-"))
		}
		return apierr.Usagef("%s accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
	}
}

func minimumArgs(n int, name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) >= n {
			return nil
		}
		return apierr.Usagef("missing argument <%s>", name)
	}
}

func printJSON(cmd *cobra.Command, value any) error {
	if err := output.WriteJSON(cmd.OutOrStdout(), value); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
