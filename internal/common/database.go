package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the sqlite handle shared by the stores of the bot
type Database struct {
	DB *gorm.DB
}

// Open the sqlite database stored in the provided file.
// An empty filename opens a private in-memory database
func OpenDatabase(filename string) (Database, error) {

	var dsn string
	memory := filename == ""
	if memory {
		// Every in-memory database gets its own name so that
		// independent stores never see each other's tables
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		// Make sure the directory holding the file exists
		dir := filepath.Dir(filename)
		if _, err := os.Stat(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Database{}, fmt.Errorf("failed to read database dir: %w", err)
			}
			if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
				return Database{}, fmt.Errorf("failed to create database dir: %w", err)
			}
		}
		// WAL journal so that readers do not block the writer
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", filename)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return Database{}, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// The in-memory database lives as long as one connection is open
		sqlDB, err := db.DB()
		if err != nil {
			return Database{}, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxIdleTime(0)
		sqlDB.SetConnMaxLifetime(0)
	}
	log.Debug().Str("dsn", dsn).Msg("Database opened")
	return Database{DB: db}, nil
}

func (db *Database) Close() error {
	if db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
