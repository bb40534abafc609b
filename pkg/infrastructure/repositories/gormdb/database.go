package gormdb

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the database connection.
type Options struct {
	// DSN is a MySQL data source name, e.g.
	// user:password@tcp(host:3306)/prodlog?parseTime=true
	DSN string

	// LogLevel maps to gorm's logger levels; zero keeps gorm's default.
	LogLevel logger.LogLevel

	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to MySQL and applies pool settings.
func Open(opts Options) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	config := &gorm.Config{}
	if opts.LogLevel != 0 {
		config.Logger = logger.Default.LogMode(opts.LogLevel)
	}

	db, err := gorm.Open(mysql.Open(opts.DSN), config)
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrapping sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
