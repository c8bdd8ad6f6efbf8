package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/CharanLingolu/LC-Ai-Backend/config"
	"github.com/CharanLingolu/LC-Ai-Backend/models"
)

var DB *gorm.DB

// Connect establishes a connection to the database
func Connect(cfg config.DBConfig) error {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("database connection established")
	return nil
}

// Migrate automatically migrates the database schema
func Migrate() error {
	if err := DB.AutoMigrate(&models.User{}, &models.Room{}, &models.Member{},
		&models.Message{}, &models.Reaction{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("database migration completed")
	return nil
}
