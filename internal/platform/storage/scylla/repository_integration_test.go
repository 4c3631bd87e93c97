package scylla

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScyllaRepository_RoundTrip(t *testing.T) {
	if os.Getenv("SCYLLA_INTEGRATION") != "1" {
		t.Skip("integration test is disabled, set SCYLLA_INTEGRATION=1 to run")
	}

	hosts := os.Getenv("SCYLLA_HOST")
	if hosts == "" {
		hosts = "localhost"
	}
	keyspace := os.Getenv("SCYLLA_KEYSPACE")
	if keyspace == "" {
		keyspace = "urlinfo"
	}

	session, err := Connect(keyspace, 5*time.Second, zerolog.Nop(), strings.Split(hosts, ",")...)
	require.NoError(t, err)
	require.NoError(t, session.Query(Schema).Exec())

	repo := NewScyllaRepository(session, 5*time.Second)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, repo.Ping(ctx))

	host := "it-" + uuid.NewString() + ".test"
	require.NoError(t, repo.Insert(ctx, domain.NewRecord(host, "/x", "BAD")))

	got, err := repo.FindByKey(ctx, host, "/x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BAD", got[0].Result)

	err = repo.Insert(ctx, domain.NewRecord(host, "/x", "OK"))
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

	got, err = repo.FindByKey(ctx, host, "/missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
