package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockExclusive(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "constituent:a@b.co", time.Second)
	b := NewRedisLock(client, "constituent:a@b.co", time.Second)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:constituent:a@b.co"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire")

	// b does not own the key, so its release is a no-op.
	require.NoError(t, b.Release(ctx))
	assert.True(t, mr.Exists("lock:constituent:a@b.co"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:constituent:a@b.co"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "k", 500*time.Millisecond)
	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(time.Second)

	b := NewRedisLock(client, "k", time.Second)
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// a's key expired and was taken over, so its release must not free b's.
	require.NoError(t, a.Release(ctx))
	assert.True(t, mr.Exists("lock:k"))
}

func TestRedisLockUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	ok, err := NewRedisLock(client, "k", time.Second).Acquire(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	a := NewLocalLock("local:k", time.Minute)
	b := NewLocalLock("local:k", time.Minute)

	ok, _ := a.Acquire(ctx)
	assert.True(t, ok)
	ok, _ = b.Acquire(ctx)
	assert.False(t, ok)

	require.NoError(t, b.Release(ctx))
	ok, _ = b.Acquire(ctx)
	assert.False(t, ok, "non-owner release must not free the key")

	require.NoError(t, a.Release(ctx))
	ok, _ = b.Acquire(ctx)
	assert.True(t, ok)
	require.NoError(t, b.Release(ctx))
}

func TestLocalLockExpiry(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)

	a := NewLocalLock("local:exp", time.Second)
	a.now = func() time.Time { return base }
	b := NewLocalLock("local:exp", time.Second)
	b.now = func() time.Time { return base.Add(2 * time.Second) }

	ok, _ := a.Acquire(ctx)
	require.True(t, ok)
	ok, _ = b.Acquire(ctx)
	assert.True(t, ok, "expired holder should be displaced")
	require.NoError(t, b.Release(ctx))
}

func TestAdvisoryXactLock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(AdvisoryID("constituent:a@b.co")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, AdvisoryXactLock(context.Background(), tx, "constituent:a@b.co"))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryXactLockError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnError(context.DeadlineExceeded)

	tx, err := db.Begin()
	require.NoError(t, err)
	err = AdvisoryXactLock(context.Background(), tx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdvisoryIDIsStable(t *testing.T) {
	assert.Equal(t, AdvisoryID("constituent:a@b.co"), AdvisoryID("constituent:a@b.co"))
	assert.NotEqual(t, AdvisoryID("constituent:a@b.co"), AdvisoryID("constituent:c@d.co"))
}

func TestNewLockPicksBackend(t *testing.T) {
	_, client := newRedis(t)

	assert.IsType(t, &RedisLock{}, NewLock(client, "k", time.Second))
	assert.IsType(t, &LocalLock{}, NewLock(nil, "k", time.Second))
}
