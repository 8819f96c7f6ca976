package db

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTest opens a throwaway SQLite database for tests. A temp file is
// used instead of :memory: because each pooled connection would get its
// own empty in-memory database.
func NewTest() (*gorm.DB, error) {
	f, err := os.CreateTemp("", "advocase-test-*.db")
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)", f.Name())
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
