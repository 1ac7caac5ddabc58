package testutil

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"tourrental/internal/database"
	"tourrental/internal/pkg/logger"
)

var dbSeq atomic.Int64

// ErrInjected is returned by callbacks installed with FailOn.
var ErrInjected = errors.New("injected failure")

// DB opens a private in-memory database with every table migrated.
// A single connection is used so concurrent transactions serialize.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", dbSeq.Add(1))
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{
			Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
			DisableForeignKeyConstraintWhenMigrating: true,
		},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

func Logger() *logger.Logger {
	return logger.Nop()
}

// FailOn makes every create or update statement touching table fail with ErrInjected
// until the returned func is called.
func FailOn(t *testing.T, db *gorm.DB, op string, table string) func() {
	t.Helper()
	var enabled atomic.Bool
	enabled.Store(true)
	register(t, db, op, table, func() bool { return enabled.Load() })
	disable := func() { enabled.Store(false) }
	t.Cleanup(disable)
	return disable
}

// FailNth fails only the n-th (1-based) create or update statement touching table.
func FailNth(t *testing.T, db *gorm.DB, op string, table string, n int64) {
	t.Helper()
	var seen atomic.Int64
	register(t, db, op, table, func() bool { return seen.Add(1) == n })
}

func register(t *testing.T, db *gorm.DB, op, table string, shouldFail func() bool) {
	t.Helper()
	name := fmt.Sprintf("testutil:fail_%s_%s_%d", op, table, dbSeq.Add(1))
	fn := func(tx *gorm.DB) {
		if tx.Statement.Table == table && shouldFail() {
			_ = tx.AddError(ErrInjected)
		}
	}

	var err error
	switch op {
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register(name, fn)
	case "update":
		err = db.Callback().Update().Before("gorm:update").Register(name, fn)
	default:
		t.Fatalf("unsupported failure op %q", op)
	}
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}
}
