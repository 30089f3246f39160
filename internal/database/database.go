package database

import (
	"os"

	"github.com/jbaldivieso/coach/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPath is the sqlite database file used when no override is set.
const DefaultPath = "training.db"

// SetTestDB sets the test database instance for unit tests
var testDB *gorm.DB

func SetTestDB(db *gorm.DB) {
	testDB = db
}

// InitDB initializes the database connection and performs schema migration.
// DATABASE_URL selects postgres; otherwise a local sqlite file is used,
// COACH_DB_PATH overriding the default location.
func InitDB() (*gorm.DB, error) {
	if testDB != nil {
		return testDB, nil
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var db *gorm.DB
	var err error
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		path := os.Getenv("COACH_DB_PATH")
		if path == "" {
			path = DefaultPath
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
	}
	if err != nil {
		return nil, err
	}

	// Auto-migrate the schema
	err = db.AutoMigrate(&model.Activity{}, &model.ActivitySplit{}, &model.SyncState{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
