package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatsync/internal/dblocal"
)

func setupRepo(t *testing.T) ChatRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := dblocal.NewStore(db)
	require.NoError(t, store.Init(context.Background()))
	return NewChatRepository(store)
}

func msg(id, from, to, body string, at time.Time) *dblocal.Message {
	return &dblocal.Message{
		ID:            id,
		SenderID:      from,
		SenderName:    "User " + from,
		RecipientID:   to,
		RecipientName: "User " + to,
		Body:          body,
		CreatedAt:     at,
	}
}

func TestChatRepository_SaveIsIdempotent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, msg("m1", "alice", "bob", "hello", now)))
	require.NoError(t, repo.Save(ctx, msg("m1", "alice", "bob", "hello", now)))

	messages, err := repo.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestChatRepository_GetConversation_Ordering(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	// Arbitrary insertion order, both directions.
	require.NoError(t, repo.Save(ctx, msg("m2", "bob", "alice", "hi", base.Add(time.Minute))))
	require.NoError(t, repo.Save(ctx, msg("m3", "alice", "bob", "how are you", base.Add(2*time.Minute))))
	require.NoError(t, repo.Save(ctx, msg("m1", "alice", "bob", "hello", base)))

	messages, err := repo.GetConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "hello", messages[0].Body)
	assert.Equal(t, "hi", messages[1].Body)
	assert.Equal(t, "how are you", messages[2].Body)

	// Restartable: a second call returns the same result.
	again, err := repo.GetConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, messages[0].ID, again[0].ID)
}

func TestChatRepository_GetConversationsForUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Save(ctx, msg("m1", "bob", "alice", "old", base)))
	require.NoError(t, repo.Save(ctx, msg("m2", "alice", "bob", "reply", base.Add(time.Minute))))
	require.NoError(t, repo.Save(ctx, msg("m3", "carol", "alice", "newer", base.Add(2*time.Minute))))
	require.NoError(t, repo.Save(ctx, msg("m4", "bob", "alice", "unseen", base.Add(3*time.Minute))))
	// Unrelated conversation must not show up.
	require.NoError(t, repo.Save(ctx, msg("x1", "carol", "dave", "private", base)))

	summaries, err := repo.GetConversationsForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Most recent first: bob (m4) before carol (m3).
	assert.Equal(t, "bob", summaries[0].CounterpartID)
	assert.Equal(t, "unseen", summaries[0].LastMessage.Body)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)

	assert.Equal(t, "carol", summaries[1].CounterpartID)
	assert.Equal(t, "newer", summaries[1].LastMessage.Body)
	assert.Equal(t, int64(1), summaries[1].UnreadCount)
}

func TestChatRepository_UnreadAccounting(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// N=3 from bob to alice, M=2 from alice to bob, nothing read.
	require.NoError(t, repo.Save(ctx, msg("b1", "bob", "alice", "1", now)))
	require.NoError(t, repo.Save(ctx, msg("b2", "bob", "alice", "2", now.Add(time.Second))))
	require.NoError(t, repo.Save(ctx, msg("b3", "bob", "alice", "3", now.Add(2*time.Second))))
	require.NoError(t, repo.Save(ctx, msg("a1", "alice", "bob", "4", now)))
	require.NoError(t, repo.Save(ctx, msg("a2", "alice", "bob", "5", now.Add(time.Second))))

	count, err := repo.GetUnreadCount(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.GetUnreadCount(ctx, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	scoped, err := repo.GetUnreadCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(3), scoped)

	scoped, err = repo.GetUnreadCount(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Zero(t, scoped)
}

func TestChatRepository_MarkAsRead_Idempotent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, msg("b1", "bob", "alice", "1", now)))
	require.NoError(t, repo.Save(ctx, msg("b2", "bob", "alice", "2", now.Add(time.Second))))

	require.NoError(t, repo.MarkAsRead(ctx, "bob", "alice"))

	count, err := repo.GetUnreadCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Second call: same final state, no error.
	require.NoError(t, repo.MarkAsRead(ctx, "bob", "alice"))

	count, err = repo.GetUnreadCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatRepository_NotReadyStoreFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewChatRepository(dblocal.NewStore(db))
	ctx := context.Background()

	_, err = repo.GetConversation(ctx, "alice", "bob")
	assert.ErrorIs(t, err, dblocal.ErrNotReady)

	_, err = repo.GetConversationsForUser(ctx, "alice")
	assert.ErrorIs(t, err, dblocal.ErrNotReady)

	err = repo.Save(ctx, msg("m1", "alice", "bob", "hello", time.Now()))
	assert.ErrorIs(t, err, dblocal.ErrNotReady)
}
