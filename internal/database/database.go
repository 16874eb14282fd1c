package database

import (
	"fmt"
	"log"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres database at url
func Connect(url string) (*gorm.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("🗄️  Database connected")
	return db, nil
}

// Migrate creates or updates the command history table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CommandRecord{}); err != nil {
		return fmt.Errorf("failed to migrate command records: %w", err)
	}
	return nil
}
