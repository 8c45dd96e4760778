package upload

import (
	"context"

	"app-reconciler/internal/project"
)

// Store is the remote record store.
type Store interface {
	CreateRecord(ctx context.Context, rec project.Record) (string, error)
	UpdateRecord(ctx context.Context, id string, rec project.Record) error
}

// LimitedStore runs every call of a Store through a RateLimiter.
type LimitedStore struct {
	Store   Store
	Limiter *RateLimiter
}

// CreateRecord implements Store.
func (s LimitedStore) CreateRecord(ctx context.Context, rec project.Record) (string, error) {
	var id string

	err := s.Limiter.Do(ctx, func() error {
		var err error
		id, err = s.Store.CreateRecord(ctx, rec)

		return err
	})

	return id, err
}

// UpdateRecord implements Store.
func (s LimitedStore) UpdateRecord(ctx context.Context, id string, rec project.Record) error {
	return s.Limiter.Do(ctx, func() error {
		return s.Store.UpdateRecord(ctx, id, rec)
	})
}
