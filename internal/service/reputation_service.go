package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultMaxURILength is the longest uri, in characters, accepted for lookup or ingestion.
const DefaultMaxURILength = 2010

// Options tunes the lookup and ingestion engines.
type Options struct {
	// APIPrefix is the route prefix without leading or trailing slash, e.g. "urlinfo/1".
	APIPrefix string

	MaxURILength int

	// FoldDomains makes domain matching case-insensitive by canonicalising
	// the domain on both lookup and ingestion. URIs always match exactly.
	FoldDomains bool

	// Observer is told the outcome of every call. Nil discards them.
	Observer Observer
}

// reputationService is the concrete implementation of the Service interface.
type reputationService struct {
	repo   Repository
	prefix string
	maxURI int
	fold   bool
	obs    Observer
	log    zerolog.Logger
}

// NewReputationService wires the engines to a store adapter.
func NewReputationService(repo Repository, opts Options, logger zerolog.Logger) Service {
	if opts.MaxURILength <= 0 {
		opts.MaxURILength = DefaultMaxURILength
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &reputationService{
		repo:   repo,
		prefix: strings.Trim(opts.APIPrefix, "/"),
		maxURI: opts.MaxURILength,
		fold:   opts.FoldDomains,
		obs:    opts.Observer,
		log:    logger.With().Str("component", "reputation").Logger(),
	}
}

// Lookup expects the escaped request path; segments are unescaped after
// splitting so they compare equal to the ingested form.
func (s *reputationService) Lookup(ctx context.Context, rawPath string) (*domain.LookupResult, error) {
	path := strings.TrimPrefix(rawPath, "/")

	if path == s.prefix || path == s.prefix+"/" {
		return s.listAll(ctx)
	}

	rest, ok := strings.CutPrefix(path, s.prefix+"/")
	if !ok {
		s.obs.ObserveLookup(OutcomeError)
		return nil, domain.ErrBadRequest
	}

	segments, err := domain.SplitEscaped(rest)
	if err != nil {
		s.obs.ObserveLookup(OutcomeError)
		return nil, err
	}

	q, err := domain.Decompose(segments)
	if err != nil {
		s.obs.ObserveLookup(OutcomeError)
		return nil, err
	}

	if n := utf8.RuneCountInString(q.URI); n > s.maxURI {
		s.obs.ObserveLookup(OutcomeError)
		return nil, fmt.Errorf("%w: uri is %d characters, limit is %d", domain.ErrURITooLong, n, s.maxURI)
	}

	if s.fold && q.Domain != "" {
		if q.Domain, err = domain.CanonicalDomain(q.Domain); err != nil {
			s.obs.ObserveLookup(OutcomeError)
			return nil, err
		}
	}

	records, err := s.repo.FindByKey(ctx, q.Domain, q.URI)
	if err != nil {
		s.obs.ObserveLookup(OutcomeError)
		return nil, storeErr(err)
	}

	if len(records) == 0 {
		s.obs.ObserveLookup(OutcomeNotFound)
		s.log.Debug().Str("url", q.URL()).Msg("not in store, failing open")
		return &domain.LookupResult{
			Kind:       domain.KindSingle,
			URL:        q.URL(),
			Reputation: string(domain.ReputationOK),
			Found:      false,
			Message:    "passing since " + q.URL() + " not found in database",
		}, nil
	}

	if len(records) > 1 {
		s.log.Warn().Str("url", q.URL()).Int("matches", len(records)).Msg("duplicate keys in store, using first match")
	}

	s.obs.ObserveLookup(OutcomeFound)
	return &domain.LookupResult{
		Kind:       domain.KindSingle,
		URL:        records[0].URL(),
		Reputation: records[0].Result,
		Found:      true,
	}, nil
}

func (s *reputationService) listAll(ctx context.Context) (*domain.LookupResult, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		s.obs.ObserveLookup(OutcomeError)
		return nil, storeErr(err)
	}

	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.URL())
	}

	s.obs.ObserveLookup(OutcomeListing)
	return &domain.LookupResult{Kind: domain.KindListing, URLs: urls}, nil
}

func (s *reputationService) Ingest(ctx context.Context, domainName, uri, result string) (*domain.Record, error) {
	rec, err := s.validate(domainName, uri, result)
	if err != nil {
		s.obs.ObserveIngest(OutcomeInvalid)
		return nil, err
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateRecord) {
			s.obs.ObserveIngest(OutcomeDuplicate)
			return nil, err
		}
		s.obs.ObserveIngest(OutcomeError)
		return nil, storeErr(err)
	}

	s.obs.ObserveIngest(OutcomeInserted)
	s.log.Info().Str("url", rec.URL()).Str("result", rec.Result).Msg("record ingested")
	return rec, nil
}

func (s *reputationService) validate(domainName, uri, result string) (*domain.Record, error) {
	switch {
	case domainName == "":
		return nil, fmt.Errorf("%w: domain is required", domain.ErrInvalidPayload)
	case uri == "":
		return nil, fmt.Errorf("%w: uri is required", domain.ErrInvalidPayload)
	case strings.TrimSpace(result) == "":
		return nil, fmt.Errorf("%w: result is required", domain.ErrInvalidPayload)
	}

	if strings.Contains(domainName, "/") {
		return nil, fmt.Errorf("%w: domain must not contain '/'", domain.ErrInvalidPayload)
	}
	if !strings.HasPrefix(uri, "/") {
		return nil, fmt.Errorf("%w: uri must start with '/'", domain.ErrInvalidPayload)
	}
	if utf8.RuneCountInString(uri) > s.maxURI {
		return nil, fmt.Errorf("%w: uri longer than %d characters", domain.ErrInvalidPayload, s.maxURI)
	}

	if s.fold {
		folded, err := domain.CanonicalDomain(domainName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		domainName = folded
	}

	return domain.NewRecord(domainName, uri, result), nil
}

func (s *reputationService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

// storeErr keeps adapter failures inside the taxonomy: anything the adapter
// did not classify is reported as an unavailable store.
func storeErr(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrDuplicateRecord) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
