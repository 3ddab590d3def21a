package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const retryBaseDelay = 100 * time.Millisecond

// IsTransient reports whether err is a connection-level failure that is safe
// to retry as a whole transaction.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// WithRetry runs fn inside one transaction and re-runs the whole transaction
// when it fails with a transient connection error. fn must be safe to repeat.
func WithRetry(ctx context.Context, conn *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = conn.WithContext(ctx).Transaction(fn)
		if err == nil || !IsTransient(err) {
			return err
		}

		delay := retryBaseDelay * time.Duration(1<<i)
		logrus.WithFields(logrus.Fields{
			"attempt": i + 1,
			"delay":   delay,
		}).WithError(err).Warn("Transient database error, retrying transaction")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
