package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/logger"
)

// app holds state shared by all subcommands once the configuration is loaded.
type app struct {
	cfg      *config.Config
	cfgPath  string
	logClose logger.Closer
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storyforge",
		Short:         "StoryForge - user story maps from plain descriptions",
		Long:          "Generate, refine, lay out and store user story maps.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newGenerateCommand(a))
	cmd.AddCommand(newFeedbackCommand(a))
	cmd.AddCommand(newExportCommand(a))
	cmd.AddCommand(newImportCommand(a))
	cmd.AddCommand(newMigrateCommand(a))
	cmd.AddCommand(newTouchpointCommand(a))

	return cmd
}

// init loads the configuration and installs the default logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, path, err := config.LoadWithCLI(config.FlagsFrom(cmd.Flags()))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg, a.cfgPath = cfg, path

	log, closer := logger.New(cfg.Logging)
	slog.SetDefault(log)
	a.logClose = closer
	return nil
}

// close flushes the logger.
func (a *app) close() {
	if a.logClose != nil {
		a.logClose.Close()
	}
}
