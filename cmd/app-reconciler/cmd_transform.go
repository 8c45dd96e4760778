package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"app-reconciler/internal/csvio"
	"app-reconciler/internal/join"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/transform"
	"app-reconciler/internal/workspace"
)

var (
	transformDirs directoryFlags
	siteLocations string
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Rewrite the legacy export with the resolved column names",
	Long: `Renames the columns of every reconciled legacy file, applies the configured
merges, copies and derived columns, attaches site location ids to the base
rows and writes {output}/new_records/{bucket}.csv.

A base row without a matching site location stops the run.`,
	RunE: runTransform,
}

func init() {
	transformDirs.register(transformCmd)
	transformCmd.Flags().StringVar(&siteLocations, "site-locations", "", "site locations export to attach ids from")
}

func runTransform(cmd *cobra.Command, _ []string) error {
	pairs, err := transformDirs.directory().Pairs()
	if err != nil {
		return err
	}

	layout := mapping.Layout{Root: cfg.Reconcile.OutputDir}
	ws := workspace.New(layout.NewRecordsDir(), logger)

	defer func() {
		if err := ws.Cleanup(); err != nil {
			logger.Warn("workspace cleanup failed", zap.Error(err))
		}
	}()

	opts := transform.Options{
		Layout:     layout,
		Config:     cfg.Transform,
		JoinColumn: cfg.Join.Column,
		Workspace:  ws,
		Logger:     logger,
	}

	if siteLocations != "" {
		sites, err := csvio.Read(siteLocations)
		if err != nil {
			return err
		}

		var chooser join.Chooser
		if p := prompter(cmd); p != nil {
			chooser = p
		}

		opts.Join = join.New(cfg.Join, chooser, logger)
		opts.Sites = sites.Rows
	} else {
		logger.Warn("no site locations given, ids are not attached", zap.String("column", cfg.Join.Column))
	}

	results, err := transform.New(opts).Run(pairs)

	for _, res := range results {
		logger.Info("records written", zap.String("path", res.Path), zap.Int("rows", res.Rows))
	}

	logger.Debug("files written", zap.Strings("files", ws.Files()))

	return err
}
