package service

import (
	"context"

	"github.com/rgdevment/urlinfo/internal/domain"
)

// Repository is the reputation store adapter.
// Every method returns an error wrapping domain.ErrStoreUnavailable when the
// store cannot be reached or does not answer within its timeout; an empty
// result is never used to signal failure.
type Repository interface {
	// FindByKey returns every record matching (domain, uri) exactly, in a stable order.
	FindByKey(ctx context.Context, domain, uri string) ([]*domain.Record, error)

	// ListAll returns every record in the store's natural scan order.
	ListAll(ctx context.Context) ([]*domain.Record, error)

	// Insert stores a new record using bound parameters.
	// An existing (domain, uri) key yields domain.ErrDuplicateRecord.
	Insert(ctx context.Context, r *domain.Record) error

	Ping(ctx context.Context) error

	Close() error
}
