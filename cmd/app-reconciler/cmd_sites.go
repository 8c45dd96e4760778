package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"app-reconciler/internal/csvio"
	"app-reconciler/internal/join"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/workspace"
)

var sitesFlags struct {
	records  string
	clients  string
	existing string
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Build the site locations import file",
	Long: `Collects one site location per record row, skips those already present in
the existing site locations export and writes {output}/new_site_locations.csv
with the id of each row's client.`,
	RunE: runSites,
}

func init() {
	sitesCmd.Flags().StringVar(&sitesFlags.records, "records", "", "legacy record export")
	sitesCmd.Flags().StringVar(&sitesFlags.clients, "clients", "", "clients export")
	sitesCmd.Flags().StringVar(&sitesFlags.existing, "existing", "", "existing site locations export")

	_ = sitesCmd.MarkFlagRequired("records")
	_ = sitesCmd.MarkFlagRequired("clients")
}

func runSites(_ *cobra.Command, _ []string) error {
	records, err := csvio.Read(sitesFlags.records)
	if err != nil {
		return err
	}

	clients, err := csvio.Read(sitesFlags.clients)
	if err != nil {
		return err
	}

	var existing []csvio.Row

	if sitesFlags.existing != "" && csvio.Exists(sitesFlags.existing) {
		t, err := csvio.Read(sitesFlags.existing)
		if err != nil {
			return err
		}

		existing = t.Rows
	}

	out, err := join.BuildSiteLocations(records.Rows, clients.Rows, existing, cfg.Join)
	if err != nil {
		return err
	}

	ws := workspace.New(cfg.Reconcile.OutputDir, logger)

	defer func() {
		if err := ws.Cleanup(); err != nil {
			logger.Warn("workspace cleanup failed", zap.Error(err))
		}
	}()

	path := mapping.Layout{Root: cfg.Reconcile.OutputDir}.SiteLocationsPath()
	if err := csvio.Write(path, out.Header, out.Rows); err != nil {
		return err
	}

	ws.Track(path, false)
	logger.Debug("files written", zap.Strings("files", ws.Files()))

	logger.Info("site locations written",
		zap.String("path", path), zap.Int("rows", len(out.Rows)), zap.Int("existing", out.Skipped))

	return nil
}
