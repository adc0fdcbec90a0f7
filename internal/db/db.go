package db

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Drivers accepted by Open.
const (
	DriverSQLite    = "sqlite"  // pure Go, no cgo
	DriverSQLiteCgo = "sqlite3" // mattn/go-sqlite3, needs cgo
	DriverMySQL     = "mysql"
	DriverPostgres  = "postgres"
)

type Handle struct {
	DB     *gorm.DB
	Driver string
	DSN    string
}

// Open connects with the named driver. For the sqlite drivers dsn is a file path.
func Open(driver, dsn string) (*Handle, error) {
	var d gorm.Dialector
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		driver = DriverSQLite
		d = sqlite.Open(dsn)
	case DriverSQLiteCgo:
		d = cgosqlite.Open(dsn)
	case DriverMySQL:
		d = mysql.Open(dsn)
	case DriverPostgres, "postgresql":
		driver = DriverPostgres
		d = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}

	gdb, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return &Handle{DB: gdb, Driver: driver, DSN: dsn}, nil
}

// OpenAt opens the default SQLite file inside dir.
func OpenAt(dir string) (*Handle, error) {
	return Open(DriverSQLite, filepath.Join(dir, "kingtire.db"))
}

func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
