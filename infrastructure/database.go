package infrastructure

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"talentvibe/domain"
	"talentvibe/logger"
)

// NewDatabase opens the configured database and migrates the schema.
// SQLite is the default for local runs; MySQL takes over when a DSN is
// configured. TranslateError is on so unique-constraint violations
// surface as gorm.ErrDuplicatedKey on both drivers.
func NewDatabase(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required when DB_DRIVER=mysql")
		}
		log.Info("connecting to MySQL")
		db, err = gorm.Open(mysql.Open(cfg.DBDSN), gormCfg)
	default:
		log.Info("opening SQLite database", "path", cfg.SQLitePath)
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Job{},
		&domain.Resume{},
		&domain.Interview{},
		&domain.Feedback{},
		&domain.BucketOverride{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info("database connected and schema migrated", "driver", cfg.DBDriver)
	return db, nil
}
