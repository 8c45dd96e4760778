package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"app-reconciler/internal/mapping"
	"app-reconciler/internal/resolve"
)

type directoryFlags struct {
	baseDir      string
	basePrefix   string
	targetDir    string
	targetPrefix string
}

func (f *directoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseDir, "base-dir", "", "directory of the new app's export")
	cmd.Flags().StringVar(&f.basePrefix, "base-prefix", "", "file prefix of the new app's export")
	cmd.Flags().StringVar(&f.targetDir, "target-dir", "", "directory of the legacy export")
	cmd.Flags().StringVar(&f.targetPrefix, "target-prefix", "", "file prefix of the legacy export")

	for _, name := range []string{"base-dir", "base-prefix", "target-dir", "target-prefix"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *directoryFlags) directory() resolve.Directory {
	return resolve.Directory{
		BaseDir:      f.baseDir,
		BasePrefix:   f.basePrefix,
		TargetDir:    f.targetDir,
		TargetPrefix: f.targetPrefix,
		Aliases:      cfg.Reconcile.FileAliases,
	}
}

var (
	diffDirs         directoryFlags
	diffAlternatives int
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Reconcile the columns of a legacy export against the new app",
	Long: `Compares every file of the legacy export with its counterpart in the new
app's export and proposes a new name for each legacy column.

Decisions are stored in {output}/mappings/{bucket}/mappings.json and replayed
on the next run. Results are written to {output}/differences/{bucket}/.`,
	RunE: runDiff,
}

func init() {
	diffDirs.register(diffCmd)
	diffCmd.Flags().IntVar(&diffAlternatives, "alternatives", 3, "other candidates shown with each proposal")
}

func runDiff(cmd *cobra.Command, _ []string) error {
	rules, err := mapping.CompileRules(cfg.Reconcile.Rules)
	if err != nil {
		return err
	}

	opts := resolve.Options{
		Root:         cfg.Reconcile.OutputDir,
		Rules:        rules,
		Alternatives: diffAlternatives,
		Logger:       logger,
	}

	if p := prompter(cmd); p != nil {
		opts.Prompter = p
	} else {
		logger.Info("running unattended, unresolved columns are skipped")
	}

	results, err := resolve.New(opts).RunDirectory(cmd.Context(), diffDirs.directory())

	for _, res := range results {
		logger.Info("bucket reconciled",
			zap.String("bucket", res.Bucket),
			zap.Int("columns", len(res.Rows)),
			zap.Int("unmatched", len(res.Unmatched)),
			zap.Any("outcomes", res.Outcomes))
	}

	return err
}
