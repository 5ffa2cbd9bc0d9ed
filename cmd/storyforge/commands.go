package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strob0t/StoryForge/internal/adapter/postgres"
	"github.com/Strob0t/StoryForge/internal/adapter/sqlite"
	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/domain/touchpoint"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newGenerateCommand(a *app) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "generate <description>",
		Short: "Generate a story map from a product description",
		Long: `Generate a story map from a plain-language product description and
store it in the configured document store.

Examples:
  storyforge generate "an app for EV drivers to find chargers"
  storyforge generate --markdown "a car rental app"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.Generate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !res.Saved {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: story map was not saved")
			}
			if markdown {
				md, err := svc.ExportMarkdown(cmd.Context(), res.Document.ID)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.Document)
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print the stored map as Markdown")
	return cmd
}

func newFeedbackCommand(a *app) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "feedback <text>",
		Short: "Apply natural-language feedback to a story map",
		Long: `Apply feedback to a stored story map. Without --id a new map is started
from the feedback text.

Examples:
  storyforge feedback --id 7d1c... "keep at most 1 supporting need"
  storyforge feedback "I want a car rental app"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.ApplyFeedback(cmd.Context(), id, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "story map id")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		out string
		id  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export story maps",
		Long: `Export every stored story map as a JSON bundle, or one map as Markdown
with --id.

Examples:
  storyforge export --out backup.json
  storyforge export --id 7d1c... --out map.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			var data []byte
			if id != "" {
				md, err := svc.ExportMarkdown(cmd.Context(), id)
				if err != nil {
					return err
				}
				data = []byte(md)
			} else if data, err = svc.Export(cmd.Context()); err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o600)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&id, "id", "", "export one story map as Markdown")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import story maps from an export bundle",
		Long: `Import story maps from a JSON export bundle, a bare document array or a
legacy export. Documents with an existing id are overwritten. Use - to read
from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			svc, closeStore, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := svc.Import(cmd.Context(), data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newMigrateCommand(a *app) *cobra.Command {
	var (
		down        int
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		Long: `Apply pending PostgreSQL migrations, roll back with --down N or print the
current version with --version. For SQLite the schema is applied on open
and --version prints the schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch a.cfg.Store.Driver {
			case config.DriverPostgres:
				dsn := a.cfg.Postgres.DSN
				switch {
				case showVersion:
					v, err := postgres.MigrationVersion(ctx, dsn)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(out, v)
					return err
				case down > 0:
					if err := postgres.RollbackMigrations(ctx, dsn, down); err != nil {
						return err
					}
				default:
					if err := postgres.RunMigrations(ctx, dsn); err != nil {
						return err
					}
				}
			case config.DriverSQLite:
				if down > 0 {
					return fmt.Errorf("sqlite schema cannot be rolled back")
				}
				st, err := sqlite.Open(a.cfg.SQLite.Path)
				if err != nil {
					return err
				}
				defer func() { _ = st.Close() }()
				if showVersion {
					v, err := st.SchemaVersion(ctx)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(out, v)
					return err
				}
			default:
				return fmt.Errorf("store driver %q has no schema", a.cfg.Store.Driver)
			}
			_, err := fmt.Fprintln(out, "ok")
			return err
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "roll back N migrations")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print the current schema version")
	return cmd
}

func newTouchpointCommand(_ *app) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "touchpoint",
		Short: "Infer the touchpoint of a user story",
		Long: `Infer platform, role, domain and page for a user story from its title and
description. No store or generator is needed.

Example:
  storyforge touchpoint --title "Admin reviews refund requests"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
				return fmt.Errorf("--title or --description is required")
			}
			l := touchpoint.InferText(title, description)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), l.String())
			return err
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "story title")
	cmd.Flags().StringVar(&description, "description", "", "story description")
	return cmd
}
