package database

import (
	"context"
	"fmt"
	"time"

	"NucleusBot/configuration"
	"NucleusBot/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the MySQL pool described by cfg and migrates the schema.
func Connect(cfg *configuration.Config) (*gorm.DB, error) {
	logger.Log.Info("Connecting to database...")
	logger.Log.Infof("DB host: %s, port: %d, name: %s, user set: %v, password set: %v",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Name,
		cfg.Database.User != "", cfg.Database.Password != "")

	db, err := Open(mysql.Open(cfg.DSN()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open wraps gorm.Open with the settings every dialect needs, mainly
// translated errors so duplicate keys surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// MonitorHealth pings the pool every interval until ctx is done.
func MonitorHealth(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sqlDB, err := db.DB()
		if err != nil {
			logger.Log.WithError(err).Error("Failed to get database instance for health check")
			continue
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			logger.Log.WithError(err).Error("Database health check failed")
		} else {
			logger.Log.Debug("Database health check passed")
		}

		stats := sqlDB.Stats()
		logger.Log.Debugf("DB Stats - Open connections: %d, In use: %d, Idle: %d", stats.OpenConnections, stats.InUse, stats.Idle)
	}
}
