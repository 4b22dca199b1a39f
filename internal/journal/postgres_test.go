//go:build integration

package journal_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/attest/models"
	"sealedger/internal/journal"
	"sealedger/pkg/testutil/containers"
)

func newStore(t *testing.T) *journal.PostgresStore {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	store := journal.NewPostgresStore(pc.DB)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testEntry(i int, docHash models.Digest) journal.Entry {
	return journal.Entry{
		ID:           fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
		SubmissionID: fmt.Sprintf("sub-%d", i),
		DocHash:      docHash,
		LineHash:     "linehash",
		Score:        64,
		TxHash:       fmt.Sprintf("tx-%d", i),
		Sender:       "secret1owner",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestPostgresStore_SaveAndFind(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testEntry(1, "aaa")))
	require.NoError(t, store.Save(ctx, testEntry(2, "bbb")))
	require.NoError(t, store.Save(ctx, testEntry(3, "aaa")))

	entries, err := store.FindByDocHash(ctx, "aaa")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "sub-3", entries[0].SubmissionID)
	assert.Equal(t, "sub-1", entries[1].SubmissionID)
	assert.Equal(t, models.Digest("aaa"), entries[0].DocHash)
	assert.Equal(t, 64, entries[0].Score)
}

func TestPostgresStore_ListRecent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Save(ctx, testEntry(i, "aaa")))
	}

	entries, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "sub-5", entries[0].SubmissionID)
	assert.Equal(t, "sub-4", entries[1].SubmissionID)
	assert.Equal(t, "sub-3", entries[2].SubmissionID)
}

func TestPostgresStore_MigrateIdempotent(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))
}
