package database

import (
	"context"
	"fmt"
	"time"

	"warehouse-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres. Duplicate-key errors are translated to gorm.ErrDuplicatedKey.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected")
	return db, nil
}

// Migrate creates or updates the schema. The stock check constraint is added by
// AutoMigrate from the model tag.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.InventoryItem{},
		&models.Transaction{},
		&models.ExchangeQueueItem{},
		&models.BomGuide{},
		&models.WarehouseZone{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_inventory_items_code_location ON inventory_items(code, location)").Error; err != nil {
		log.Warn("code/location index could not be created", zap.Error(err))
	}

	log.Info("migration completed")
	return nil
}
