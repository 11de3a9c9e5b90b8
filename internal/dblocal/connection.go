package dblocal

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatsync/internal/config"
)

// NewDB opens the local message store. The engine comes from config:
// sqlite by default (one file per device/session), mysql for shared
// development deployments.
func NewDB(cnf *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:      logger.Default.LogMode(gormLogLevel(cnf)),
		PrepareStmt: true,
	}

	switch cnf.Database.Engine {
	case "", "sqlite":
		if cnf.Database.Path == "" {
			return nil, fmt.Errorf("CHAT_DB_PATH is not set")
		}
		db, err := gorm.Open(sqlite.Open(cnf.Database.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("cannot open sqlite store at %s: %w", cnf.Database.Path, err)
		}
		return db, nil

	case "mysql":
		dsn := cnf.DSN()
		db, err := gorm.Open(mysql.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql.DB error: %w", err)
		}
		sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		log.Println("connected to MySQL message store")
		return db, nil

	default:
		return nil, fmt.Errorf("unknown store engine %q", cnf.Database.Engine)
	}
}

func gormLogLevel(cnf *config.Config) logger.LogLevel {
	switch cnf.Logging.Level {
	case "debug":
		return logger.Info
	case "warn", "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
