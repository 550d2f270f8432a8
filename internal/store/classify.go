package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// Category buckets persistence failures for logging: connection-level
// problems (server unreachable, bad credentials, unknown schema),
// statement-level problems (missing table, malformed statement), and commit
// failures.
type Category string

const (
	CategoryConnection Category = "connection"
	CategoryStatement  Category = "statement"
	CategoryCommit     Category = "commit"
	CategoryUnknown    Category = "unknown"
)

// MySQL server error numbers this collector distinguishes.
const (
	errAccessDenied     = 1045
	errDBAccessDenied   = 1044
	errBadDatabase      = 1049
	errAuthPluginError  = 1251
	errParseError       = 1064
	errBadFieldError    = 1054
	errNoSuchTable      = 1146
	errLockWaitTimeout  = 1205
	errLockDeadlock     = 1213
)

// Classify maps a persistence error onto its category using the underlying
// driver error code where one is available.
func Classify(err error) Category {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errAccessDenied, errDBAccessDenied, errBadDatabase, errAuthPluginError:
			return CategoryConnection
		case errParseError, errBadFieldError, errNoSuchTable:
			return CategoryStatement
		case errLockWaitTimeout, errLockDeadlock:
			return CategoryCommit
		default:
			return CategoryStatement
		}
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return CategoryConnection
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryConnection
	}
	return CategoryUnknown
}

// PersistError wraps a persistence failure with its category and the device
// whose transaction was rolled back.
type PersistError struct {
	Manufacturer string
	DeviceID     string
	Category     Category
	Err          error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s/%s: %s error: %v", e.Manufacturer, e.DeviceID, e.Category, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
