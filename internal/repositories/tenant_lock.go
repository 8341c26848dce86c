package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrLockNotAcquired is returned when another session holds the tenant's lock.
var ErrLockNotAcquired = errors.New("tenant lock is held by another session")

// TenantLocker serializes recalculation runs of one tenant across processes.
type TenantLocker interface {
	// TryLock returns immediately. The returned unlock must be called exactly once.
	TryLock(ctx context.Context, tenantID int64) (unlock func() error, err error)
}

type advisoryTenantLocker struct {
	db *sql.DB
}

// NewTenantLocker creates a TenantLocker backed by session-level Postgres advisory locks.
// The lock lives on a dedicated connection, so it is freed if the process dies.
func NewTenantLocker(db *sql.DB) TenantLocker {
	return &advisoryTenantLocker{db: db}
}

func (l *advisoryTenantLocker) TryLock(ctx context.Context, tenantID int64) (func() error, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reserving connection for tenant lock: %v", ErrDatabaseError, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, tenantID).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: acquiring tenant lock: %v", ErrDatabaseError, err)
	}
	if !acquired {
		conn.Close()
		return nil, ErrLockNotAcquired
	}

	return func() error {
		defer conn.Close()
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, tenantID); err != nil {
			return fmt.Errorf("%w: releasing tenant lock: %v", ErrDatabaseError, err)
		}
		return nil
	}, nil
}
