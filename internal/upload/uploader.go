package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"app-reconciler/internal/config"
	"app-reconciler/internal/logging"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/project"
)

// ErrUpdateFailed is returned by Update when the update policy is abort.
var ErrUpdateFailed = errors.New("update failed")

// Stats counts what happened to the records of a run.
type Stats struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d skipped=%d failed=%d", s.Created, s.Updated, s.Skipped, s.Failed)
}

// Options configures an Uploader.
type Options struct {
	Store   Store
	Retrier *Retrier
	// IDs records created ids and lets re-runs skip created records.
	IDs *mapping.IDMap
	// UpdateFailure is config.UpdateAbort or config.UpdateSkip.
	UpdateFailure string
	// DryRun never calls Store and invents ids.
	DryRun bool
	// Failures receives one entry per record that could not be written.
	Failures *zap.Logger
	// Skips receives one entry per record left alone on purpose.
	Skips  *zap.Logger
	Logger *zap.Logger
}

// Uploader creates and updates records.
type Uploader struct {
	opts     Options
	runID    string
	logger   *zap.Logger
	failures *zap.Logger
	skips    *zap.Logger
	stats    Stats
	dryIDs   map[string]string
}

// New returns an Uploader.
func New(opts Options) *Uploader {
	if opts.Retrier == nil {
		opts.Retrier = NewRetrier(1, 0)
	}

	runID := uuid.NewString()

	return &Uploader{
		opts:     opts,
		runID:    runID,
		logger:   logging.OrNop(opts.Logger).With(zap.String("run_id", runID)),
		failures: logging.OrNop(opts.Failures).With(zap.String("run_id", runID)),
		skips:    logging.OrNop(opts.Skips).With(zap.String("run_id", runID)),
		dryIDs:   map[string]string{},
	}
}

// RunID identifies this run in the logs.
func (u *Uploader) RunID() string { return u.runID }

// Stats returns the counts so far.
func (u *Uploader) Stats() Stats { return u.stats }

// Created returns the id a source record received, including ids invented
// in dry runs.
func (u *Uploader) Created(sourceID string) (string, bool) {
	if id, ok := u.dryIDs[sourceID]; ok {
		return id, true
	}

	if u.opts.IDs == nil {
		return "", false
	}

	return u.opts.IDs.Lookup(sourceID)
}

// Create creates every record of batch. Records already in the id map are
// skipped. A record that fails on every attempt is logged as a failure and
// the batch continues; only cancellation or a failure to persist the id map
// stops it.
func (u *Uploader) Create(ctx context.Context, batch []project.Record) (Stats, error) {
	for i, rec := range batch {
		if err := ctx.Err(); err != nil {
			return u.stats, err
		}

		logger := u.logger.With(zap.String("source_id", rec.SourceID), zap.Int("row", i+1), zap.Int("of", len(batch)))

		if id, done := u.Created(rec.SourceID); done && rec.SourceID != "" {
			logger.Debug("already created, skipping")
			u.skips.Info("already created", zap.String("source_id", rec.SourceID), zap.String("id", id))
			u.stats.Skipped++

			continue
		}

		if u.opts.DryRun {
			id := uuid.NewString()
			u.dryIDs[rec.SourceID] = id
			u.stats.Created++

			logger.Info("dry run: record not created", zap.String("id", id))

			continue
		}

		var id string

		err := u.opts.Retrier.Do(ctx, func() error {
			var err error
			id, err = u.opts.Store.CreateRecord(ctx, rec)

			return err
		})

		switch {
		case ctx.Err() != nil:
			return u.stats, ctx.Err()
		case err != nil:
			u.stats.Failed++

			logger.Error("create failed, skipping record", zap.Error(err))
			u.failures.Error("create failed",
				zap.String("source_id", rec.SourceID), zap.Error(err), zap.Any("record", rec))

			continue
		}

		u.stats.Created++

		logger.Info("record created", zap.String("id", id))

		if rec.SourceID != "" && u.opts.IDs != nil {
			if err := u.opts.IDs.Put(rec.SourceID, id); err != nil {
				return u.stats, fmt.Errorf("record %s created as %s but not saved: %w", rec.SourceID, id, err)
			}
		}
	}

	return u.stats, nil
}

// Update replaces the record id with rec. Updates are not retried.
func (u *Uploader) Update(ctx context.Context, id string, rec project.Record) error {
	logger := u.logger.With(zap.String("id", id), zap.String("source_id", rec.SourceID))

	if u.opts.DryRun {
		u.stats.Updated++
		logger.Info("dry run: record not updated")

		return nil
	}

	if err := u.opts.Store.UpdateRecord(ctx, id, rec); err != nil {
		u.failures.Error("update failed", zap.String("id", id), zap.String("source_id", rec.SourceID), zap.Error(err))

		if u.opts.UpdateFailure == config.UpdateSkip && ctx.Err() == nil {
			u.stats.Failed++
			logger.Warn("update failed, skipping record", zap.Error(err))

			return nil
		}

		return fmt.Errorf("%w: record %s: %w", ErrUpdateFailed, id, err)
	}

	u.stats.Updated++
	logger.Info("record updated")

	return nil
}
