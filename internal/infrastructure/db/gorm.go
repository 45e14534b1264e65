package db

import (
	"context"
	"fmt"
	"time"

	"scholarfund-backend/internal/domain/application"
	"scholarfund-backend/internal/domain/donation"
	"scholarfund-backend/internal/domain/scholarship"
	"scholarfund-backend/internal/domain/student"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config returns the gorm settings every opener shares. Timestamps are UTC so
// deadline and staleness comparisons are stable across drivers.
func Config(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		// open() pings explicitly after pool tuning
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
	}
}

func OpenGorm(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return open(mysql.Open(dsn), Config(level))
}

// OpenGormWithDialector lets tests hand in a prepared dialector.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	return open(dial, Config(logger.Silent))
}

func open(dial gorm.Dialector, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}

// Check is the health probe for db.
func Check(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Models lists every table owned by this service, parents first.
func Models() []any {
	return []any{
		&scholarship.Scholarship{},
		&scholarship.Donor{},
		&student.Student{},
		&donation.Donation{},
		&application.Application{},
		&application.StatusHistory{},
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
