package service

import (
	"context"

	"github.com/rgdevment/urlinfo/internal/domain"
)

type Service interface {
	// Lookup classifies the URL encoded in rawPath, or lists every known URL
	// when rawPath is the bare API root.
	Lookup(ctx context.Context, rawPath string) (*domain.LookupResult, error)

	// Ingest validates and stores a new reputation record, returning what was stored.
	Ingest(ctx context.Context, domainName, uri, result string) (*domain.Record, error)

	Ready(ctx context.Context) error
}
