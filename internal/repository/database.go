package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apk-analysis/droid-detective/internal/config"
	"github.com/apk-analysis/droid-detective/internal/domain"
	"github.com/apk-analysis/droid-detective/internal/retry"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if cfg.Type == "mysql" {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
		dialector = mysql.Open(dsn)
	} else {
		path := cfg.Path
		if path == "" {
			path = "droiddetective.db"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(path)
	}

	// MySQL 可能晚于本服务启动，连接失败时退避重试
	attempts := 1
	if cfg.Type == "mysql" {
		attempts = 5
	}
	db, err := retry.DoWithResult(context.Background(), &retry.Config{
		MaxAttempts:     attempts,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Strategy:        retry.StrategyExponential,
		Operation:       "connect database",
		Logger:          log,
	}, func(ctx context.Context) (*gorm.DB, error) {
		db, err := gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, retry.Permanent(err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Type == "mysql" {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	} else {
		// sqlite 单写
		sqlDB.SetMaxOpenConns(1)
	}

	if err := AutoMigrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB, log *logrus.Logger) error {
	log.Debug("Running database migrations...")

	if err := db.AutoMigrate(&domain.ScanRecord{}, &domain.TrainingRun{}); err != nil {
		return err
	}

	log.Debug("Database migrations completed")
	return nil
}
