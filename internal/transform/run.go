package transform

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"app-reconciler/internal/config"
	"app-reconciler/internal/csvio"
	"app-reconciler/internal/join"
	"app-reconciler/internal/logging"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/resolve"
	"app-reconciler/internal/workspace"
)

// Options configures a Transformer.
type Options struct {
	Layout mapping.Layout
	Config config.TransformConfig
	// Join attaches site locations to base rows when set.
	Join       *join.Resolver
	JoinColumn string
	Sites      []csvio.Row
	// Workspace, when set, tracks every file written.
	Workspace *workspace.Workspace
	Logger    *zap.Logger
}

// Transformer writes new_records/{bucket}.csv for every reconciled bucket.
type Transformer struct {
	opts   Options
	logger *zap.Logger
}

// Result describes one written bucket.
type Result struct {
	Bucket  string
	Path    string
	Rows    int
	Renamed int
}

// New creates a Transformer.
func New(opts Options) *Transformer {
	return &Transformer{opts: opts, logger: logging.OrNop(opts.Logger)}
}

// Run clears the new_records directory and transforms every pair that has
// a differences table.
func (t *Transformer) Run(pairs []resolve.Pair) ([]Result, error) {
	if err := workspace.ClearDir(t.opts.Layout.NewRecordsDir()); err != nil {
		return nil, err
	}

	var results []Result

	for _, p := range pairs {
		if !csvio.Exists(t.opts.Layout.DifferencesPath(p.Bucket)) {
			t.logger.Info("no differences, skipping", zap.String("bucket", p.Bucket))
			continue
		}

		res, err := t.Bucket(p.Bucket, p.TargetPath)
		if err != nil {
			return results, fmt.Errorf("bucket %s: %w", p.Bucket, err)
		}

		results = append(results, *res)
	}

	return results, nil
}

// Bucket transforms one target file using the bucket's differences table.
func (t *Transformer) Bucket(bucket, targetPath string) (*Result, error) {
	diffs, err := mapping.ReadDifferences(t.opts.Layout.DifferencesPath(bucket))
	if err != nil {
		return nil, err
	}

	table, err := csvio.Read(targetPath)
	if err != nil {
		return nil, err
	}

	for _, w := range table.Warnings {
		t.logger.Warn("csv", zap.String("file", targetPath), zap.Int("row", w.Row), zap.String("message", w.Message))
	}

	renames := Renames(diffs)

	header, err := ApplyRenames(table.Header, table.Rows, renames)
	if err != nil {
		return nil, err
	}

	for from, to := range renames {
		t.logger.Debug("rename", zap.String("from", from), zap.String("to", to))
	}

	if header, err = t.fields(bucket, header, table.Rows); err != nil {
		return nil, err
	}

	if bucket == mapping.BaseBucket {
		if t.opts.Join != nil {
			if err := t.opts.Join.Attach(table.Rows, t.opts.Sites, t.opts.JoinColumn); err != nil {
				return nil, err
			}

			header = appendMissing(header, t.opts.JoinColumn)
		}

		if header, err = Derived(header, table.Rows, t.opts.Config.Derived); err != nil {
			return nil, err
		}
	}

	path := t.opts.Layout.NewRecordsPath(bucket)
	if err := csvio.Write(path, header, table.Rows); err != nil {
		return nil, err
	}

	if t.opts.Workspace != nil {
		t.opts.Workspace.Track(path, false)
	}

	t.logger.Info("transformed",
		zap.String("bucket", bucket), zap.Int("rows", len(table.Rows)), zap.Int("renamed", len(renames)))

	return &Result{Bucket: bucket, Path: path, Rows: len(table.Rows), Renamed: len(renames)}, nil
}

// fields applies the merges and copies configured for bucket.
func (t *Transformer) fields(bucket string, header []string, rows []csvio.Row) ([]string, error) {
	for _, m := range t.opts.Config.Merges {
		if bucketOf(m.Bucket) != bucket {
			continue
		}

		for i, row := range rows {
			changed, err := MergeFields(row, m.Into, m.From, m.AllowMultiple)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}

			if changed {
				t.logger.Debug("merged", zap.Int("row", i+1), zap.String("into", m.Into), zap.String("from", m.From))
			}
		}
	}

	for _, c := range t.opts.Config.Copies {
		if bucketOf(c.Bucket) != bucket {
			continue
		}

		for i, row := range rows {
			if err := MapFields(row, c.Columns); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}

		for _, to := range c.Columns {
			header = appendMissing(header, to)
		}
	}

	return header, nil
}

func bucketOf(b string) string {
	if b == "" {
		return mapping.BaseBucket
	}

	return b
}

func appendMissing(header []string, column string) []string {
	if slices.Contains(header, column) {
		return header
	}

	return append(header, column)
}
