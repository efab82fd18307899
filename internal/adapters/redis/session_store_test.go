package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flixbase/authsvc/internal/errors"
	"github.com/flixbase/authsvc/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestSessionStore_UpsertAndFind(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-session:", time.Hour)
	ctx := context.Background()

	err := store.Upsert(ctx, "ann@x.com", "token-1")
	require.NoError(t, err)

	sess, err := store.FindByUserID(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", sess.UserID)
	assert.Equal(t, "token-1", sess.Token)
}

func TestSessionStore_Upsert_OverwritesExisting(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-session:", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "ann@x.com", "token-1"))
	require.NoError(t, store.Upsert(ctx, "ann@x.com", "token-2"))

	// A second login overwrites the single session rather than adding one.
	sess, err := store.FindByUserID(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "token-2", sess.Token)

	keys, err := client.Keys(ctx, "test-session:ann@x.com*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestSessionStore_FindNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-session:", time.Hour)

	_, err := store.FindByUserID(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionStore_Delete_Idempotent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-session:", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "ann@x.com", "token-1"))

	existed, err := store.DeleteByUserID(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.True(t, existed)

	// Deleting again is a successful no-op.
	existed, err = store.DeleteByUserID(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.FindByUserID(ctx, "ann@x.com")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionStore_Upsert_EmptyUserID(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-session:", time.Hour)

	err := store.Upsert(context.Background(), "", "token-1")
	assert.Error(t, err)
}
