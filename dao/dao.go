package dao

import (
	"context"
	"fmt"
	"log/slog"
	"stock-dashboard-backend/model"
	"time"

	"github.com/avast/retry-go/v4"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectDelay    = time.Second
)

// DB 会话存储，由 Open 初始化
var DB *gorm.DB

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported session store driver: %q", driver)
	}
}

// Open 连接会话存储并迁移表结构，启动时数据库未就绪会按退避重试
func Open(ctx context.Context, driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	err = retry.Do(
		func() error {
			var err error
			db, err = gorm.Open(d, &gorm.Config{
				Logger: logger.Default.LogMode(logger.Warn),
			})
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying session store connection",
				"attempt", n+1,
				"driver", driver,
				"err", err,
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect session store: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	DB = db
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ChatSession{}, &model.QueryAudit{}); err != nil {
		return fmt.Errorf("failed to migrate session store: %w", err)
	}
	return nil
}

func Close() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("Failed to close session store", "err", err)
	}
}
