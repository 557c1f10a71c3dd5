package database

import (
	"log"

	"github.com/roamly/grouptrip-api/internal/config"
	"github.com/roamly/grouptrip-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	err = db.AutoMigrate(
		&models.User{},
		&models.APIKey{},
		&models.CatalogOffer{},
		&models.Group{},
		&models.GroupMember{},
		&models.Proposal{},
		&models.Vote{},
		&models.BookingSession{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}
