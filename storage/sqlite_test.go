package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"convoy-bot/config"
)

func configFor(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver}
}

func nopLogger() *zap.Logger { return zap.NewNop() }

func TestSQLiteStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	s, err := openSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordOpen(ctx, Record{
		ChannelID: "ch-1",
		GuildID:   "g-1",
		OwnerID:   "u-alice",
		State:     "open",
		CreatedAt: now,
		UpdatedAt: now,
	}))

	require.NoError(t, s.RecordState(ctx, "ch-1", "closed"))

	recs, err := s.ListByGuild(ctx, "g-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ch-1", recs[0].ChannelID)
	assert.Equal(t, "u-alice", recs[0].OwnerID)
	assert.Equal(t, "closed", recs[0].State)
	assert.Equal(t, now, recs[0].CreatedAt)

	// Re-recording an open is an upsert, not a duplicate.
	require.NoError(t, s.RecordOpen(ctx, Record{
		ChannelID: "ch-1", GuildID: "g-1", OwnerID: "u-alice",
		State: "open", CreatedAt: now, UpdatedAt: now.Add(time.Minute),
	}))
	recs, err = s.ListByGuild(ctx, "g-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "open", recs[0].State)

	recs, err = s.ListByGuild(ctx, "g-other")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), configFor("cassandra"), nopLogger())
	assert.Error(t, err)
}

func TestOpenNoneDriver(t *testing.T) {
	s, err := Open(context.Background(), configFor("none"), nopLogger())
	require.NoError(t, err)
	assert.NoError(t, s.RecordOpen(context.Background(), Record{}))
	assert.NoError(t, s.Close())
}
