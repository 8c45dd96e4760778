package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"app-reconciler/internal/csvio"
	"app-reconciler/internal/logging"
	"app-reconciler/internal/mapping"
)

// Directory describes two exports to reconcile file by file. Files are named
// {prefix}.csv for the base record and {prefix}_{repeatable}.csv for each
// repeatable.
type Directory struct {
	BaseDir      string
	BasePrefix   string
	TargetDir    string
	TargetPrefix string
	// Aliases maps a target postfix to the base postfix it corresponds to.
	Aliases map[string]string
}

// Pair is one target file and its base counterpart.
type Pair struct {
	Bucket     string
	TargetPath string
	BasePath   string
	// BaseExists is false when the base export has no counterpart; the
	// bucket is then prefixed with NO_MATCH_.
	BaseExists bool
}

// Pairs lists the target files and resolves their base counterparts.
func (d Directory) Pairs() ([]Pair, error) {
	entries, err := os.ReadDir(d.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.TargetDir, err)
	}

	var pairs []Pair

	for _, e := range entries {
		postfix, ok := d.postfix(e)
		if !ok {
			continue
		}

		if alias, ok := d.Aliases[postfix]; ok {
			postfix = alias
		}

		bucket := mapping.BaseBucket
		baseName := d.BasePrefix + ".csv"

		if postfix != "" {
			bucket = strings.ToLower(postfix)
			baseName = d.BasePrefix + "_" + postfix + ".csv"
		}

		p := Pair{
			Bucket:     bucket,
			TargetPath: filepath.Join(d.TargetDir, e.Name()),
			BasePath:   filepath.Join(d.BaseDir, baseName),
		}

		p.BaseExists = csvio.Exists(p.BasePath)
		if !p.BaseExists {
			p.Bucket = mapping.NoMatchPrefix + p.Bucket
		}

		pairs = append(pairs, p)
	}

	slices.SortFunc(pairs, func(a, b Pair) int { return strings.Compare(a.TargetPath, b.TargetPath) })

	return pairs, nil
}

// postfix returns the repeatable postfix of a target file name, "" for the
// base file, or false when the entry is not a target export.
func (d Directory) postfix(e os.DirEntry) (string, bool) {
	name := e.Name()
	if !e.Type().IsRegular() || !strings.HasSuffix(name, ".csv") {
		return "", false
	}

	stem := strings.TrimSuffix(name, ".csv")

	switch {
	case stem == d.TargetPrefix:
		return "", true
	case strings.HasPrefix(stem, d.TargetPrefix+"_"):
		return strings.TrimPrefix(stem, d.TargetPrefix+"_"), true
	default:
		return "", false
	}
}

// RunDirectory reconciles every target file of d. The list of missing base
// files is rebuilt from scratch on every call.
func (r *Resolver) RunDirectory(ctx context.Context, d Directory) ([]*Result, error) {
	pairs, err := d.Pairs()
	if err != nil {
		return nil, err
	}

	mismatchPath := r.layout.MismatchPath()
	if err := os.Remove(mismatchPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove %s: %w", mismatchPath, err)
	}

	var results []*Result

	for _, p := range pairs {
		var oldColumns []string

		if p.BaseExists {
			base, err := csvio.Read(p.BasePath)
			if err != nil {
				return results, err
			}

			oldColumns = base.Header
		} else {
			r.logger.Warn("no base file for target", zap.String("target", p.TargetPath), zap.String("base", p.BasePath))

			if err := appendLine(mismatchPath, p.BasePath); err != nil {
				return results, err
			}
		}

		target, err := csvio.Read(p.TargetPath)
		if err != nil {
			return results, err
		}

		res, err := r.Run(ctx, p.Bucket, oldColumns, target.Header)
		if res != nil {
			results = append(results, res)
		}

		if err != nil {
			return results, err
		}
	}

	return results, nil
}

func appendLine(path, line string) error {
	f, err := logging.OpenAppend(path)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(f, line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}
