package main

import (
	"log/slog"
	"os"

	"github.com/leongj/azure-agents-cli/internal/cli"
)

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if err := cli.NewRoot(logger, level).Execute(); err != nil {
		os.Exit(cli.Report(os.Stderr, err))
	}
}
