package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-bot/internal/common/config"
	"stock-bot/internal/common/database"
	apperrors "stock-bot/internal/common/errors"
)

func newMiniStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl, "stokbot:msg:"), mr
}

func TestRedisStore_FirstSightingIsNotDuplicate(t *testing.T) {
	store, mr := newMiniStore(t, time.Hour)
	ctx := context.Background()

	dup, err := store.Seen(ctx, "MSG1")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = store.Seen(ctx, "MSG1")
	require.NoError(t, err)
	assert.True(t, dup)

	assert.True(t, mr.Exists("stokbot:msg:MSG1"))
	assert.Equal(t, time.Hour, mr.TTL("stokbot:msg:MSG1"))
}

func TestRedisStore_ExpiredIdIsNew(t *testing.T) {
	store, mr := newMiniStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Seen(ctx, "MSG2")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	dup, err := store.Seen(ctx, "MSG2")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRedisStore_EmptyIdNeverDuplicate(t *testing.T) {
	store, _ := newMiniStore(t, time.Minute)
	dup, err := store.Seen(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, dup)
}

func TestRedisStore_FailsOpen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectSetNX("p:MSG3", 1, time.Minute).SetErr(errors.New("connection refused"))

	store := NewRedisStore(database.NewRedisFromClient(client), time.Minute, "p:")
	dup, err := store.Seen(context.Background(), "MSG3")

	assert.False(t, dup)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDedupeUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoop(t *testing.T) {
	dup, err := Noop{}.Seen(context.Background(), "x")
	assert.NoError(t, err)
	assert.False(t, dup)
}
