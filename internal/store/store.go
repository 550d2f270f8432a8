package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/khoward12/yard-data-aggregation/internal/record"
)

// runLockName is the MySQL advisory lock guarding against overlapping runs
// when one run outlasts the scheduler interval.
const runLockName = "yard_data_aggregation.run"

// MySQLConfig holds the destination database settings.
type MySQLConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

func (c MySQLConfig) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// Store persists device records into MySQL, one transaction per record.
type Store struct {
	db *gorm.DB

	// lockConn pins the session holding the advisory run lock. GET_LOCK and
	// RELEASE_LOCK are session-scoped, so both must run on this connection;
	// issuing them through the pool would let the release land on a session
	// that never held the lock.
	mu       sync.Mutex
	lockConn *sql.Conn
}

// Open connects to MySQL and configures the connection pool. The schema is
// assumed to exist; no migration is attempted.
func Open(cfg MySQLConfig) (*Store, error) {
	db, err := gorm.Open(gormmysql.Open(cfg.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing gorm handle. Tests use this with sqlite.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AcquireRunLock takes the advisory run lock without waiting. It reports
// false when another run already holds the lock. The lock is taken on a
// dedicated connection held until release.
func (s *Store) AcquireRunLock(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockConn != nil {
		return false, nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}

	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", runLockName).Scan(&got); err != nil {
		conn.Close()
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !got.Valid || got.Int64 != 1 {
		conn.Close()
		return false, nil
	}

	s.lockConn = conn
	return true, nil
}

// ReleaseRunLock releases the advisory run lock on the session that acquired
// it and returns the pinned connection to the pool.
func (s *Store) ReleaseRunLock(ctx context.Context) error {
	s.mu.Lock()
	conn := s.lockConn
	s.lockConn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	defer conn.Close()

	var released sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", runLockName).Scan(&released); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	if !released.Valid || released.Int64 != 1 {
		slog.Warn("run lock was not held by this session", "lock", runLockName)
	}
	return nil
}

// PersistRecord fans one device record out to its device row and child row
// batches and commits them as a single transaction. Empty child batches are
// skipped without failing the transaction. On any statement failure the
// whole transaction rolls back and the error is returned classified; other
// records are unaffected.
func (s *Store) PersistRecord(ctx context.Context, rec *record.DeviceRecord) error {
	fetchTs := rec.FetchTs()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch rec.Manufacturer {
		case record.ManufacturerRachio:
			row := sprinklerRowFor(rec, fetchTs)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if rows := sprinklerScheduleRowsFor(rec, fetchTs); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
			if rows := zoneRowsFor(rec, fetchTs); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		default:
			row := mowerRowFor(rec, fetchTs)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if rows := scheduleRowsFor(rec, fetchTs); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		if rows := locationRowsFor(rec, fetchTs); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if rows := settingRowsFor(rec, fetchTs); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if rows := forecastRowsFor(rec, fetchTs); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if rec.Address != nil {
			row := AddressRow{
				Manufacturer: string(rec.Manufacturer),
				DeviceID:     rec.DeviceID,
				FetchTs:      fetchTs,
				Street:       rec.Address.Street,
				City:         rec.Address.City,
				State:        rec.Address.State,
				Zip:          rec.Address.Zip,
				Country:      rec.Address.Country,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		perr := &PersistError{
			Manufacturer: string(rec.Manufacturer),
			DeviceID:     rec.DeviceID,
			Category:     Classify(err),
			Err:          err,
		}
		slog.Error("record persistence rolled back",
			"manufacturer", rec.Manufacturer,
			"device_id", rec.DeviceID,
			"category", perr.Category,
			"error", err)
		return perr
	}
	return nil
}
