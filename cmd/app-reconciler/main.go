// Package main provides the CLI entrypoint for app-reconciler.
//
// app-reconciler migrates records between two field-data apps:
//   - diff reconciles the columns of a legacy export against the new app
//   - transform rewrites the legacy rows with the resolved names
//   - sites builds the site locations the records link to
//   - import projects flat rows into nested records and uploads them
//   - flatten lists the fields of a form
//   - config prints or writes the effective configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"app-reconciler/internal/config"
	"app-reconciler/internal/logging"
	"app-reconciler/internal/resolve"
)

var (
	configPath  string
	debug       bool
	auditLog    string
	skipPrompts bool
	dryRun      bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "app-reconciler",
	Short: "Reconcile, transform and import records between two field-data apps",
	Long: `app-reconciler is an operator-run batch toolkit for moving records from a
legacy app export into a new app.

A typical migration runs diff, edits the differences tables where needed,
then runs sites, transform and import.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		logger, err = logging.New(logging.Options{
			Debug:     debug,
			AuditPath: auditLog,
			Console:   cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger.Debug("configuration loaded", zap.String("path", configPath), zap.String("output", cfg.Reconcile.OutputDir))

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output")
	rootCmd.PersistentFlags().StringVar(&auditLog, "audit-log", "", "append every log entry as JSON to this file")
	rootCmd.PersistentFlags().BoolVar(&skipPrompts, "skip-prompts", false, "never ask questions; unresolved choices are skipped or fail")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "do not write to the remote app")

	rootCmd.AddCommand(diffCmd, transformCmd, sitesCmd, importCmd, flattenCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// prompter returns a terminal prompter, or nil when runs are unattended.
func prompter(cmd *cobra.Command) *resolve.TerminalPrompter {
	if skipPrompts {
		return nil
	}

	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !resolve.Interactive(in) {
		return nil
	}

	return resolve.NewTerminalPrompter(in, cmd.ErrOrStderr())
}
