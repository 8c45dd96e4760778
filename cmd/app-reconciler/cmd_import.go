package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"app-reconciler/internal/csvio"
	"app-reconciler/internal/fulcrum"
	"app-reconciler/internal/logging"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/project"
	"app-reconciler/internal/schema"
	"app-reconciler/internal/upload"
	"app-reconciler/internal/workspace"
)

var (
	errRecordsFailed  = errors.New("records could not be written")
	errLinkMapIsIDMap = errors.New("the link map must not be the id map of this import")
)

var (
	importForm  formFlags
	importFlags struct {
		dir         string
		prefix      string
		linkMap     string
		update      bool
		keepScratch bool
	}
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Project flat record rows into the new form and upload them",
	Long: `Reads {dir}/{prefix}.csv (base.csv without a prefix) and its repeatable
files, projects every row onto the form and creates the records.

Created ids are kept in the id map, so an interrupted import can be re-run:
records already created are skipped, or updated with --update. Records that
fail on every attempt are written to the failure log and the import goes on,
but the command exits non-zero.

A follow-up import passes --link-map, the id map of the import of the prior
schema. Record links are translated through it, and link fields missing from
the rows are resolved through each row's own id.`,
	RunE: runImport,
}

func init() {
	importForm.register(importCmd)
	importCmd.Flags().StringVar(&importFlags.dir, "dir", "", "directory of the rows to import (default {output}/new_records)")
	importCmd.Flags().StringVar(&importFlags.prefix, "prefix", "", "file prefix of the rows to import")
	importCmd.Flags().StringVar(&importFlags.linkMap, "link-map", "", "id map of the prior import, for follow-up imports (default upload.link_map)")
	importCmd.Flags().BoolVar(&importFlags.update, "update", false, "update records already in the id map instead of skipping them")
	importCmd.Flags().BoolVar(&importFlags.keepScratch, "keep-scratch", false, "keep the fetched form and dry-run payloads")
}

func baseFile(prefix string) string {
	if prefix == "" {
		return mapping.BaseBucket + ".csv"
	}

	return prefix + ".csv"
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	layout := mapping.Layout{Root: cfg.Reconcile.OutputDir}

	dir := importFlags.dir
	if dir == "" {
		dir = layout.NewRecordsDir()
	}

	ws := workspace.New(filepath.Join(cfg.Reconcile.OutputDir, "runs", time.Now().Format("20060102-150405")), logger)
	defer func() {
		logger.Debug("workspace files", zap.Strings("files", ws.Files()))

		if err := ws.Cleanup(); err != nil {
			logger.Warn("workspace cleanup failed", zap.Error(err))
		}
	}()

	var client *fulcrum.Client

	if !dryRun || importForm.name != "" {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		client = c
	}

	form, err := importForm.load(ctx, client)
	if err != nil {
		return err
	}

	if err := schema.CheckDuplicates(form.Elements); err != nil {
		return err
	}

	if importForm.name != "" {
		if err := dumpJSON(ws, "form.json", form); err != nil {
			return err
		}
	}

	table, err := csvio.Read(filepath.Join(dir, baseFile(importFlags.prefix)))
	if err != nil {
		return err
	}

	ids, err := mapping.LoadIDMap(cfg.Upload.IDMap)
	if err != nil {
		return err
	}

	links, err := loadLinkMap()
	if err != nil {
		return err
	}

	proj := project.New(project.Options{
		Dir:     dir,
		Prefix:  importFlags.prefix,
		Columns: cfg.Columns,
		LinkMap: links,
		Logger:  logger,
	})

	records, err := proj.Records(form.ID, form.Elements, table.Rows)

	diags := proj.Diagnostics()
	for _, w := range diags.Warnings {
		logger.Warn(w.String())
	}

	for _, e := range diags.Errors {
		logger.Error(e.String())
	}

	if summary := diags.Summary(); summary != "" {
		logger.Info("projection diagnostics", zap.String("summary", summary))
	}

	if err != nil {
		return err
	}

	if diags.HasErrors() {
		return diags.Error()
	}

	failures, closeFailures, err := logging.NewFileLogger(cfg.Upload.FailureLog)
	if err != nil {
		return err
	}
	defer closeFailures()

	skips, closeSkips, err := logging.NewFileLogger(cfg.Upload.SkipLog)
	if err != nil {
		return err
	}
	defer closeSkips()

	ws.Track(cfg.Upload.FailureLog, false)
	ws.Track(cfg.Upload.SkipLog, false)

	opts := upload.Options{
		Retrier:       upload.NewRetrier(cfg.Upload.CreateAttempts, cfg.GetCreateBackoff()),
		IDs:           ids,
		UpdateFailure: cfg.Upload.UpdateFailure,
		DryRun:        dryRun,
		Failures:      failures,
		Skips:         skips,
		Logger:        logger,
	}

	if client != nil {
		limiter := upload.NewRateLimiter(cfg.MinInterval())
		opts.Store = upload.LimitedStore{Store: client, Limiter: limiter}

		logger.Debug("rate limit", zap.Duration("min_interval", limiter.Interval()))

		if !dryRun {
			existing, err := client.SearchRecords(ctx, form.ID)
			if err != nil {
				return err
			}

			logger.Info("form already holds records", zap.String("form", form.Name), zap.Int("records", len(existing)))
		}
	}

	up := upload.New(opts)
	logger.Info("import started",
		zap.String("run_id", up.RunID()), zap.Int("records", len(records)), zap.Bool("dry_run", dryRun))

	create := records

	if importFlags.update {
		create = nil

		for _, rec := range records {
			id, ok := ids.Lookup(rec.SourceID)
			if !ok {
				create = append(create, rec)
				continue
			}

			if err := up.Update(ctx, id, rec); err != nil {
				return err
			}
		}
	}

	stats, err := up.Create(ctx, create)

	if dryRun {
		if err := dumpJSON(ws, "payloads.json", records); err != nil {
			return err
		}
	}

	logger.Info("import finished", zap.String("run_id", up.RunID()), zap.Stringer("stats", stats))

	if err != nil {
		return err
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%w: %d, see %s", errRecordsFailed, stats.Failed, cfg.Upload.FailureLog)
	}

	return nil
}

// loadLinkMap reads the prior import's id map of a follow-up import. It is nil
// for a plain import.
func loadLinkMap() (*mapping.IDMap, error) {
	path := importFlags.linkMap
	if path == "" {
		path = cfg.Upload.LinkMap
	}

	if path == "" {
		return nil, nil
	}

	if filepath.Clean(path) == filepath.Clean(cfg.Upload.IDMap) {
		return nil, fmt.Errorf("%w: %s", errLinkMapIsIDMap, path)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("link map: %w", err)
	}

	links, err := mapping.LoadIDMap(path)
	if err != nil {
		return nil, err
	}

	logger.Info("follow-up import", zap.String("link_map", path), zap.Int("ids", links.Len()))

	return links, nil
}

// dumpJSON writes v into the workspace. Unless --keep-scratch is set the
// file is removed when the command ends.
func dumpJSON(ws *workspace.Workspace, name string, v any) error {
	f, err := ws.Create(name, !importFlags.keepScratch)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}

	logger.Debug("wrote", zap.String("path", f.Name()))

	return nil
}
