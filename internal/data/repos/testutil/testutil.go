package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/db"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	dbSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a private in-memory SQLite database with every table migrated.
// It is closed when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := fmt.Sprintf("file:test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	svc, err := db.NewService(Logger(tb), db.Config{Driver: db.DriverSQLite, DSN: name, Silent: true})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return svc.DB()
}

// Tx opens a transaction that is rolled back at cleanup. With SQLite's single
// connection, callers must route every query of the test through it.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
