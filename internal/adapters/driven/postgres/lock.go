package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// DefaultMaxHeldLocks bounds how many pooled connections advisory locks may pin.
const DefaultMaxHeldLocks = 4

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL session advisory locks.
//
// Advisory locks belong to a connection, so each held lock pins one pooled
// connection until Release. At most maxHeld connections are pinned at once so
// the store always has connections left for the work done under the lock.
// The TTL is ignored: the lock lasts until it is released or the connection drops.
//
// Redis locks are preferred when REDIS_URL is set; this is the fallback.
type AdvisoryLock struct {
	db    *DB
	slots chan struct{}

	mu    sync.Mutex
	conns map[string]*sql.Conn // nil value: acquisition in flight
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter that pins at most
// maxHeld connections. maxHeld <= 0 selects DefaultMaxHeldLocks.
func NewAdvisoryLock(db *DB, maxHeld int) *AdvisoryLock {
	if maxHeld <= 0 {
		maxHeld = DefaultMaxHeldLocks
	}
	return &AdvisoryLock{
		db:    db,
		slots: make(chan struct{}, maxHeld),
		conns: make(map[string]*sql.Conn),
	}
}

// hashLockName converts a lock name to a 64-bit advisory lock key (FNV-1a).
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("yousearch:lock:" + name))
	return int64(h.Sum64())
}

// Acquire attempts to take the named lock. It returns false at once when the name
// is held, but may wait for a free slot while other names are held.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	if _, held := l.conns[name]; held {
		l.mu.Unlock()
		return false, nil
	}
	l.conns[name] = nil
	l.mu.Unlock()

	conn, err := l.take(ctx, name)
	if err != nil || conn == nil {
		l.mu.Lock()
		delete(l.conns, name)
		l.mu.Unlock()
		return false, err
	}

	l.mu.Lock()
	l.conns[name] = conn
	l.mu.Unlock()
	return true, nil
}

// take reserves a slot and a connection and tries the advisory lock on it.
// A nil conn with a nil error means another session holds the lock.
func (l *AdvisoryLock) take(ctx context.Context, name string) (*sql.Conn, error) {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for lock slot: %w", ctx.Err())
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		<-l.slots
		return nil, classify(err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(name)).Scan(&acquired); err != nil {
		conn.Close()
		<-l.slots
		return nil, classify(err)
	}
	if !acquired {
		conn.Close()
		<-l.slots
		return nil, nil
	}
	return conn, nil
}

// Release unlocks the named lock on the connection that took it.
// Safe to call even if the lock is not held.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn := l.conns[name]
	if conn == nil {
		l.mu.Unlock()
		return nil
	}
	delete(l.conns, name)
	l.mu.Unlock()

	defer func() { <-l.slots }()
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released); err != nil {
		// drop the session so the server frees the lock with it
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		return classify(err)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.Ping(ctx)
}
