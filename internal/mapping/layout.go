package mapping

import (
	"path/filepath"
)

// File names inside the output root.
const (
	MappingsFile      = "mappings.json"
	CompletedFile     = ".completed"
	DifferencesFile   = "differences.csv"
	UnmatchedFile     = "unmatched_columns.csv"
	MismatchFile      = "repeatable_mismatches.txt"
	SiteLocationsFile = "new_site_locations.csv"

	// NoMatchPrefix marks buckets whose base file was missing.
	NoMatchPrefix = "NO_MATCH_"
	// BaseBucket is the bucket of the top-level record.
	BaseBucket = "base"
)

// Layout resolves the output paths of a reconciliation run.
type Layout struct {
	Root string
}

// MappingsDir is the directory holding a bucket's mappings.json.
func (l Layout) MappingsDir(bucket string) string {
	return filepath.Join(l.Root, "mappings", bucket)
}

// DifferencesDir is the directory holding a bucket's differences.
func (l Layout) DifferencesDir(bucket string) string {
	return filepath.Join(l.Root, "differences", bucket)
}

// DifferencesPath is a bucket's differences.csv.
func (l Layout) DifferencesPath(bucket string) string {
	return filepath.Join(l.DifferencesDir(bucket), DifferencesFile)
}

// UnmatchedPath is a bucket's unmatched_columns.csv.
func (l Layout) UnmatchedPath(bucket string) string {
	return filepath.Join(l.DifferencesDir(bucket), UnmatchedFile)
}

// MismatchPath lists the base files that were missing.
func (l Layout) MismatchPath() string {
	return filepath.Join(l.Root, MismatchFile)
}

// NewRecordsDir holds the transformed record files.
func (l Layout) NewRecordsDir() string {
	return filepath.Join(l.Root, "new_records")
}

// NewRecordsPath is the transformed record file of a bucket.
func (l Layout) NewRecordsPath(bucket string) string {
	return filepath.Join(l.NewRecordsDir(), bucket+".csv")
}

// SiteLocationsPath is the site location import file.
func (l Layout) SiteLocationsPath() string {
	return filepath.Join(l.Root, SiteLocationsFile)
}
