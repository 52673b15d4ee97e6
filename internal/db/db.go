// Package db manages the PostgreSQL connection and transaction scoping.
package db

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bonus_service/internal/config"
)

// Connect opens a gorm connection to PostgreSQL.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.AppEnv == "production" {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	conn, err := gorm.Open(postgres.Open(cfg.DatabaseDSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("connected to database")

	return conn, nil
}
