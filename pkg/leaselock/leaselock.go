// Package leaselock serializes full-analysis runs per document. Each run
// holds an expiring lease row in app_locks that is renewed in the background
// while the work is running, so a crashed worker frees its document once the
// TTL passes instead of wedging it forever.
package leaselock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrBusy means another holder owns the document and Wait was off.
	ErrBusy = errors.New("document lease busy")
	// ErrLost means a renewal found the lease taken over, typically after a
	// stall longer than the TTL.
	ErrLost = errors.New("document lease lost")
)

const renewAttempts = 3

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Locker hands out per-document leases backed by the app_locks table.
type Locker struct {
	db dbConn
}

func New(pool *pgxpool.Pool) *Locker {
	return &Locker{db: pool}
}

// Options tunes one lease acquisition.
type Options struct {
	// TTL is how long the lease survives without a renewal. Defaults to
	// five minutes, comfortably above one renew interval.
	TTL time.Duration

	// Wait polls for the lease instead of returning ErrBusy, so queued
	// deliveries for an in-flight document line up rather than bounce.
	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration
}

func documentKey(documentID int64) string {
	return fmt.Sprintf("document:%d", documentID)
}

// WithDocumentLease runs fn while holding the lease for one document and
// releases it afterwards. The context passed to fn is cancelled if the lease
// is lost mid-run, so a long analysis stops writing once another holder may
// have started.
func (c *Locker) WithDocumentLease(
	ctx context.Context,
	documentID int64,
	opts Options,
	fn func(ctx context.Context) error,
) error {
	l, err := c.acquire(ctx, documentKey(documentID), opts)
	if err != nil {
		return err
	}
	defer l.release()
	return fn(l.ctx)
}

type lease struct {
	key   string
	token string
	ctx   context.Context

	locker *Locker
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

func (c *Locker) acquire(ctx context.Context, key string, opts Options) (*lease, error) {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = 250 * time.Millisecond
	}
	if opts.WaitJitter < 0 {
		opts.WaitJitter = 0
	}
	ttlMs := opts.TTL.Milliseconds()

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	for {
		var acquiredKey string
		err := c.db.QueryRow(ctx, tryAcquireSQL, key, token, ttlMs).Scan(&acquiredKey)
		if err == nil && acquiredKey != "" {
			break
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &lease{
		key:    key,
		token:  token,
		ctx:    leaseCtx,
		locker: c,
		cancel: cancel,
		stopCh: make(chan struct{}),
	}

	go l.renewLoop(opts.TTL, ttlMs)

	return l, nil
}

// release stops the renew loop and deletes the lease row. The delete runs on
// a fresh context so cancellation of the work never leaks the lock.
func (l *lease) release() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})
	_, _ = l.locker.db.Exec(context.Background(), releaseSQL, l.key, l.token)
}

func (l *lease) renewLoop(ttl time.Duration, ttlMs int64) {
	t := time.NewTicker(max(ttl/2, time.Second))
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.ctx.Done():
			return
		case <-t.C:
			if err := l.renew(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *lease) renew(ttlMs int64) error {
	for attempt := range renewAttempts {
		renewCtx, cancel := context.WithTimeout(l.ctx, 15*time.Second)
		var renewedKey string
		err := l.locker.db.QueryRow(renewCtx, renewSQL, l.key, l.token, ttlMs).Scan(&renewedKey)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
		if attempt == renewAttempts-1 {
			return err
		}
		if err := sleepWithJitter(l.ctx, 200*time.Millisecond, 0); err != nil {
			return err
		}
	}
	return ErrLost
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const tryAcquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE app_locks.expires_at < now()
   OR app_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE app_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM app_locks
WHERE lock_key = $1 AND locked_by = $2;
`
