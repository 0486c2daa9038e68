package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"go-printshop-ws/internal/lock"
	"go-printshop-ws/internal/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Coordinator runs multi-step mutations as one transaction, optionally
// under a keyed lock, and normalises store failures into the service
// error taxonomy. Callers publish notifications only after Run returns nil.
type Coordinator struct {
	db      *gorm.DB
	locker  lock.Locker
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewCoordinator(db *gorm.DB, locker lock.Locker, m *metrics.Metrics, log *zap.Logger) *Coordinator {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Coordinator{db: db, locker: locker, metrics: m, log: log}
}

// DB returns the handle used for reads outside a transaction.
func (c *Coordinator) DB() *gorm.DB {
	return c.db
}

// Run executes fn inside a single transaction. Any error rolls back.
func (c *Coordinator) Run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	started := time.Now()
	err := c.db.WithContext(ctx).Transaction(fn)
	err = c.classify(op, err)
	c.metrics.ObserveTx(op, time.Since(started).Seconds(), err != nil && !isDomainError(err))
	return err
}

// RunLocked is Run guarded by the lock named key.
func (c *Coordinator) RunLocked(ctx context.Context, op, key string, fn func(tx *gorm.DB) error) error {
	release, err := c.locker.Acquire(ctx, key)
	if err != nil {
		c.log.Warn("lock not obtained", zap.String("op", op), zap.String("key", key), zap.Error(err))
		c.metrics.ObserveTx(op, 0, true)
		if isConnectivityError(err) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}
	defer release()
	return c.Run(ctx, op, fn)
}

func (c *Coordinator) classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case isConnectivityError(err):
		c.log.Error("store unreachable", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		c.log.Error("transaction aborted", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}
}

// lookupError turns a missing row into ErrNotFound and classifies the rest.
func (c *Coordinator) lookupError(err error, what string, key interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what, key)
	}
	return c.classify("lookup_"+what, err)
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
