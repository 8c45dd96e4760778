// Package join attaches site location ids to record rows and builds the
// site locations that a record import needs to exist first.
package join

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"app-reconciler/internal/config"
	"app-reconciler/internal/csvio"
	"app-reconciler/internal/logging"
)

var (
	// ErrNoSiteLocation is returned when no site location matches a row.
	ErrNoSiteLocation = errors.New("no site location matches")
	// ErrAmbiguousSiteLocation is returned when several site locations match
	// and nobody picked one.
	ErrAmbiguousSiteLocation = errors.New("several site locations match")
	// ErrMissingColumn is returned when a row lacks a join column.
	ErrMissingColumn = errors.New("missing join column")
	// ErrUnknownClient is returned when a client name has no clients row.
	ErrUnknownClient = errors.New("unknown client")
)

// Chooser picks one of several options. It returns -1 to decline.
type Chooser interface {
	Choose(question string, options []string) (int, error)
}

// Resolver matches record rows to site locations on the address components,
// the client name and the account reference.
type Resolver struct {
	cfg     config.JoinConfig
	chooser Chooser
	logger  *zap.Logger

	chosen map[string]string
}

// New creates a resolver. chooser may be nil, in which case ambiguous
// matches are errors.
func New(cfg config.JoinConfig, chooser Chooser, logger *zap.Logger) *Resolver {
	return &Resolver{
		cfg:     cfg,
		chooser: chooser,
		logger:  logging.OrNop(logger),
		chosen:  make(map[string]string),
	}
}

func (r *Resolver) recordColumns() []string {
	cols := make([]string, 0, len(r.cfg.AddressChecks)+2)
	for _, c := range r.cfg.AddressChecks {
		cols = append(cols, r.cfg.AddressPrefix+c)
	}

	return append(cols, r.cfg.ClientName, r.cfg.AccountRef)
}

func (r *Resolver) matches(row, site csvio.Row) bool {
	for _, c := range r.cfg.AddressChecks {
		col := r.cfg.AddressPrefix + c
		if row[col] != site[col] {
			return false
		}
	}

	return row[r.cfg.ClientName] == site[r.cfg.SiteClientName] &&
		row[r.cfg.AccountRef] == site[r.cfg.SiteJobID]
}

// Resolve returns the id of the site location matching row.
func (r *Resolver) Resolve(row csvio.Row, sites []csvio.Row) (string, error) {
	cols := r.recordColumns()
	for _, c := range cols {
		if !row.Has(c) {
			return "", fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var ids []string

	seen := make(map[string]bool)

	for _, site := range sites {
		if !r.matches(row, site) {
			continue
		}

		id := site[r.cfg.SiteID]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	key := r.describe(row)

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNoSiteLocation, key)
	case 1:
		return ids[0], nil
	}

	if id, ok := r.chosen[key]; ok {
		return id, nil
	}

	if r.chooser == nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrAmbiguousSiteLocation, key, strings.Join(ids, ", "))
	}

	idx, err := r.chooser.Choose(fmt.Sprintf("Several site locations match %s:", key), ids)
	if err != nil {
		return "", err
	}

	if idx < 0 || idx >= len(ids) {
		return "", fmt.Errorf("%w: %s (%s)", ErrAmbiguousSiteLocation, key, strings.Join(ids, ", "))
	}

	r.chosen[key] = ids[idx]
	r.logger.Info("site location chosen", zap.String("key", key), zap.String("id", ids[idx]))

	return ids[idx], nil
}

func (r *Resolver) describe(row csvio.Row) string {
	parts := make([]string, 0, len(r.cfg.AddressChecks)+2)
	parts = append(parts, row[r.cfg.ClientName], row[r.cfg.AccountRef])

	for _, c := range r.cfg.AddressChecks {
		parts = append(parts, row[r.cfg.AddressPrefix+c])
	}

	return strings.Join(parts, " | ")
}

// Attach sets column on every row to its site location id. It stops at the
// first row that cannot be resolved.
func (r *Resolver) Attach(rows, sites []csvio.Row, column string) error {
	for i, row := range rows {
		id, err := r.Resolve(row, sites)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}

		row[column] = id
	}

	return nil
}
