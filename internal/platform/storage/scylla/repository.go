package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/rgdevment/urlinfo/internal/service"
	"github.com/rs/zerolog"
)

// Schema is the expected table layout. The partition key is the domain so
// every uri of one host lives together; the clustering key makes (domain, uri) unique.
const Schema = `
CREATE TABLE IF NOT EXISTS malware (
    domain text,
    uri    text,
    result text,
    PRIMARY KEY ((domain), uri)
)`

type scyllaRepository struct {
	session *gocql.Session
	timeout time.Duration
}

func NewScyllaRepository(session *gocql.Session, timeout time.Duration) service.Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &scyllaRepository{
		session: session,
		timeout: timeout,
	}
}

func Connect(keyspace string, timeout time.Duration, logger zerolog.Logger, hosts ...string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	cluster.Timeout = timeout
	cluster.ConnectTimeout = timeout

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to scylla: %w", domain.ErrStoreUnavailable, err)
	}

	logger.Info().Strs("hosts", hosts).Str("keyspace", keyspace).Msg("connected to scylla")
	return session, nil
}

func (r *scyllaRepository) FindByKey(ctx context.Context, domainName, uri string) ([]*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT domain, uri, result FROM malware WHERE domain = ? AND uri = ?`

	iter := r.session.Query(query, domainName, uri).WithContext(ctx).Iter()
	return scanRecords(iter, "find")
}

func (r *scyllaRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	iter := r.session.Query(`SELECT domain, uri, result FROM malware`).WithContext(ctx).Iter()
	return scanRecords(iter, "list")
}

func (r *scyllaRepository) Insert(ctx context.Context, rec *domain.Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO malware (domain, uri, result) VALUES (?, ?, ?) IF NOT EXISTS`

	existing := map[string]interface{}{}
	applied, err := r.session.Query(query,
		rec.Domain,
		rec.URI,
		rec.Result,
	).WithContext(ctx).MapScanCAS(existing)

	if err != nil {
		return fmt.Errorf("%w: scylla: failed to insert record: %w", domain.ErrStoreUnavailable, err)
	}
	if !applied {
		return fmt.Errorf("scylla: %w: %s", domain.ErrDuplicateRecord, rec.URL())
	}

	return nil
}

func (r *scyllaRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var version string
	err := r.session.Query(`SELECT release_version FROM system.local`).WithContext(ctx).Scan(&version)
	if err != nil && !errors.Is(err, gocql.ErrNotFound) {
		return fmt.Errorf("%w: scylla: ping: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *scyllaRepository) Close() error {
	r.session.Close()
	return nil
}

func scanRecords(iter *gocql.Iter, op string) ([]*domain.Record, error) {
	var records []*domain.Record
	var d, uri, result string

	for iter.Scan(&d, &uri, &result) {
		records = append(records, &domain.Record{
			Domain: d,
			URI:    uri,
			Result: result,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("%w: scylla: failed to %s records: %w", domain.ErrStoreUnavailable, op, err)
	}

	return records, nil
}
