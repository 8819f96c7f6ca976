package db

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/config"
	obslogger "github.com/smallbiznis/advocase/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(NewGorm),
	fx.Provide(NewSnowflakeNode),
)

// NewGorm opens the database connection configured by the environment and
// registers pool limits and lifecycle shutdown.
func NewGorm(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}

	if cfg.DBType != "sqlite" {
		if err := conn.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          cfg.DBName,
			RefreshInterval: 15,
		})); err != nil {
			log.Warn("failed to register gorm prometheus plugin", zap.Error(err))
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(poolValue(cfg.DBMaxIdleConn, 10))
	sqlDB.SetMaxOpenConns(poolValue(cfg.DBMaxOpenConn, 50))
	sqlDB.SetConnMaxLifetime(poolDuration(cfg.DBConnMaxLifetime, time.Hour))
	sqlDB.SetConnMaxIdleTime(poolDuration(cfg.DBConnMaxIdleTime, 30*time.Minute))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return sqlDB.Close()
		},
	})

	return conn, nil
}

func NewSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func poolValue(configured, def int) int {
	if configured > 0 {
		return configured
	}
	return def
}

func poolDuration(configuredSeconds int, def time.Duration) time.Duration {
	if configuredSeconds > 0 {
		return time.Duration(configuredSeconds) * time.Second
	}
	return def
}
