package database

/*
	gorm over sqlite. This is the fixture backend's data store: it holds the
	report and CVE records the stub API serves to the dashboard.
*/

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite" // Sqlite driver based on CGO
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pynezz/threatdash/internal/util"
)

const (
	// Memory is an in-process database, dropped when the last connection closes.
	Memory = ":memory:"

	batchSize = 100
)

// chkExt normalizes the database name to <name>.db. Names with another
// extension are rejected.
func chkExt(database string) (string, bool) {
	if database == Memory || strings.HasPrefix(database, "file:") {
		return database, true
	}
	base := database
	if i := strings.LastIndex(database, "/"); i >= 0 {
		base = database[i+1:]
	}
	switch {
	case base == "" || base == ".db":
		return "", false
	case strings.HasSuffix(base, ".db"):
		return database, true
	case strings.Contains(base, "."):
		return "", false
	}
	return database + ".db", true
}

// InitDB opens the database and automigrates the given tables.
func InitDB(database string, conf gorm.Config, tables ...interface{}) (*gorm.DB, error) {
	name, ok := chkExt(database)
	if !ok {
		return nil, fmt.Errorf("database name missing or invalid: %q. Format: <name>.db or <name>", database)
	}
	if conf.Logger == nil {
		conf.Logger = logger.Default.LogMode(logger.Silent)
	}

	util.PrintInfo("Opening data store " + name + "...")
	db, err := gorm.Open(sqlite.Open(name), &conf)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	if name == Memory {
		// every pooled connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(tables...); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", name, err)
	}

	return db.Session(&gorm.Session{CreateBatchSize: batchSize}), nil
}

// GetTableCount returns the number of rows in a table.
func GetTableCount(db *gorm.DB, table string) (int64, error) {
	var count int64
	result := db.Table(table).Count(&count)
	return count, result.Error
}
