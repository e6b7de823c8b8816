package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type memRow struct {
	lockedBy  string
	expiresAt time.Time
}

// memLocks mimics the app_locks table for the three statements the locker
// issues.
type memLocks struct {
	mu    sync.Mutex
	locks map[string]memRow
}

func newMemLocks() *memLocks {
	return &memLocks{locks: make(map[string]memRow)}
}

type scanKeyRow struct {
	key string
	err error
}

func (r scanKeyRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if p, ok := dest[0].(*string); ok {
			*p = r.key
		}
	}
	return nil
}

func (m *memLocks) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := args[0].(string)
	token := args[1].(string)
	ttl := time.Duration(args[2].(int64)) * time.Millisecond

	switch sql {
	case tryAcquireSQL:
		row, held := m.locks[key]
		if held && row.expiresAt.After(time.Now()) && row.lockedBy != token {
			return scanKeyRow{err: pgx.ErrNoRows}
		}
		m.locks[key] = memRow{lockedBy: token, expiresAt: time.Now().Add(ttl)}
		return scanKeyRow{key: key}
	case renewSQL:
		row, held := m.locks[key]
		if !held || row.lockedBy != token {
			return scanKeyRow{err: pgx.ErrNoRows}
		}
		m.locks[key] = memRow{lockedBy: token, expiresAt: time.Now().Add(ttl)}
		return scanKeyRow{key: key}
	}
	return scanKeyRow{err: pgx.ErrNoRows}
}

func (m *memLocks) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sql == releaseSQL {
		key := args[0].(string)
		token := args[1].(string)
		if row, held := m.locks[key]; held && row.lockedBy == token {
			delete(m.locks, key)
		}
	}
	return pgconn.CommandTag{}, nil
}

func (m *memLocks) holder(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, held := m.locks[key]
	return row.lockedBy, held
}

func TestWithDocumentLeaseRunsAndReleases(t *testing.T) {
	db := newMemLocks()
	locker := &Locker{db: db}

	ran := false
	err := locker.WithDocumentLease(context.Background(), 42, Options{TTL: time.Minute}, func(ctx context.Context) error {
		ran = true
		if _, held := db.holder("document:42"); !held {
			t.Error("lease row missing while fn runs")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithDocumentLease: %v", err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}
	if _, held := db.holder("document:42"); held {
		t.Error("lease row not released")
	}
}

func TestWithDocumentLeaseBusy(t *testing.T) {
	db := newMemLocks()
	db.locks["document:7"] = memRow{lockedBy: "someone-else", expiresAt: time.Now().Add(time.Minute)}
	locker := &Locker{db: db}

	err := locker.WithDocumentLease(context.Background(), 7, Options{TTL: time.Minute}, func(ctx context.Context) error {
		t.Error("fn must not run while the document is held")
		return nil
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestWithDocumentLeaseTakesOverExpired(t *testing.T) {
	db := newMemLocks()
	db.locks["document:7"] = memRow{lockedBy: "crashed-worker", expiresAt: time.Now().Add(-time.Second)}
	locker := &Locker{db: db}

	var holder string
	err := locker.WithDocumentLease(context.Background(), 7, Options{TTL: time.Minute}, func(ctx context.Context) error {
		holder, _ = db.holder("document:7")
		return nil
	})
	if err != nil {
		t.Fatalf("WithDocumentLease: %v", err)
	}
	if holder == "crashed-worker" || holder == "" {
		t.Errorf("expired lease not taken over, holder %q", holder)
	}
}

func TestWithDocumentLeaseWaitsForRelease(t *testing.T) {
	db := newMemLocks()
	db.locks["document:9"] = memRow{lockedBy: "other", expiresAt: time.Now().Add(80 * time.Millisecond)}
	locker := &Locker{db: db}

	err := locker.WithDocumentLease(context.Background(), 9, Options{
		TTL:          time.Minute,
		Wait:         true,
		WaitInterval: 20 * time.Millisecond,
	}, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("expected wait to win the lease, got %v", err)
	}
}
