// Package promptdb stores prompt versions and pipeline guardrails in SQLite
// databases shared with the agent pipeline.
package promptdb

import (
	"errors"
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrPromptExists is returned when a prompt name is already taken
	ErrPromptExists = errors.New("prompt already exists")

	// ErrPromptNotFound is returned for an unknown prompt name
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrVersionExists is returned when a prompt already has the version
	ErrVersionExists = errors.New("version already exists")

	// ErrVersionNotFound is returned for an unknown version id
	ErrVersionNotFound = errors.New("version not found")
)

func open(path string, models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate schema in %s: %w", path, err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
