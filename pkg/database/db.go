package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Type     string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	PoolSize int
	LogLevel logger.LogLevel
}

// Connect opens the configured database and sizes its connection pool.
func Connect(cfg Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql db: %w", err)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	if cfg.Type == "sqlite" {
		// single writer
		poolSize = 1
	}
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(max(poolSize/2, 1))
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Infof("Connected to %s database (pool size %d)", cfg.Type, poolSize)
	return db, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Type {
	case "postgres", "postgresql", "":
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				valueOrDefault(cfg.Host, "localhost"),
				valueOrDefault(cfg.User, "postgres"),
				cfg.Password,
				valueOrDefault(cfg.Name, "telros"),
				valueOrDefault(cfg.Port, "5432"),
			)
		}
		return postgres.Open(dsn), nil

	case "mysql", "mariadb":
		dsn := cfg.URL
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				valueOrDefault(cfg.User, "root"),
				cfg.Password,
				valueOrDefault(cfg.Host, "localhost"),
				valueOrDefault(cfg.Port, "3306"),
				valueOrDefault(cfg.Name, "telros"),
			)
		}
		return mysql.Open(dsn), nil

	case "sqlite":
		dsn := cfg.URL
		if dsn == "" {
			dsn = valueOrDefault(cfg.Name, "telros.db") + "?_pragma=foreign_keys(1)"
		}
		return sqlite.Open(dsn), nil
	}

	return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
}

func valueOrDefault(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
