package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a lock using the best available backend.
// If redisClient is non-nil, uses Redis (preferred for cross-host locking).
// Otherwise an in-process lock; PostgreSQL deployments additionally
// serialize writers with AdvisoryXactLock inside the write transaction.
func NewLock(redisClient *redis.Client, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewLocalLock(key, ttl)
}

// =============================================================================
// PostgreSQL transaction-scoped advisory lock
// =============================================================================
// pg_advisory_xact_lock is held by the caller's transaction and released at
// commit or rollback, so it never needs a connection of its own.

// Execer is satisfied by *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AdvisoryID derives the deterministic advisory lock ID for key.
func AdvisoryID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// AdvisoryXactLock blocks until the advisory lock for key is granted to tx,
// or ctx is done.
func AdvisoryXactLock(ctx context.Context, tx Execer, key string) error {
	id := AdvisoryID(key)
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", id); err != nil {
		return fmt.Errorf("advisory xact lock %d: %w", id, err)
	}
	return nil
}

// =============================================================================
// In-process lock (single-host deployments)
// =============================================================================

type localEntry struct {
	owner   *LocalLock
	expires time.Time
}

var (
	localMu    sync.Mutex
	localLocks = make(map[string]localEntry)
)

// LocalLock implements DistLock with a process-wide keyed table. Entries
// expire after ttl so a leaked lock cannot wedge a key forever.
type LocalLock struct {
	key string
	ttl time.Duration
	now func() time.Time
}

// NewLocalLock creates an in-process lock for key.
func NewLocalLock(key string, ttl time.Duration) *LocalLock {
	return &LocalLock{key: key, ttl: ttl, now: time.Now}
}

// Acquire takes the key if it is free or its holder has expired.
func (l *LocalLock) Acquire(context.Context) (bool, error) {
	localMu.Lock()
	defer localMu.Unlock()

	now := l.now()
	if e, ok := localLocks[l.key]; ok && e.owner != l && (l.ttl <= 0 || now.Before(e.expires)) {
		return false, nil
	}
	localLocks[l.key] = localEntry{owner: l, expires: now.Add(l.ttl)}
	return true, nil
}

// Release frees the key only if this lock still owns it.
func (l *LocalLock) Release(context.Context) error {
	localMu.Lock()
	defer localMu.Unlock()

	if e, ok := localLocks[l.key]; ok && e.owner == l {
		delete(localLocks, l.key)
	}
	return nil
}
