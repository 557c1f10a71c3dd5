package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/config"
	"github.com/roamly/grouptrip-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

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
		t.Fatalf("failed to auto migrate: %v", err)
	}

	return db
}

func testAuthHandler(db *gorm.DB) *auth.AuthHandler {
	return auth.NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, db)
}

// authCtx injects the acting user the way the middleware would.
func authCtx(userID uint) context.Context {
	return context.WithValue(context.Background(), auth.UserIDKey, userID)
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()

	user := models.User{DiscordID: "discord-" + name, Username: name}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

// seedGroup creates a group with the given members; the first one is the
// admin.
func seedGroup(t *testing.T, db *gorm.DB, maxParticipants int, memberIDs ...uint) models.Group {
	t.Helper()

	group := models.Group{
		Name:            fmt.Sprintf("trip-%d", time.Now().UnixNano()),
		MaxParticipants: maxParticipants,
		Status:          models.GroupStatusPlanning,
	}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	for i, userID := range memberIDs {
		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		member := models.GroupMember{GroupID: group.ID, UserID: userID, Role: role, JoinedAt: time.Now()}
		if err := db.Create(&member).Error; err != nil {
			t.Fatalf("failed to create member: %v", err)
		}
	}

	return group
}

func seedOffer(t *testing.T, db *gorm.DB, price float64, amenities ...string) models.CatalogOffer {
	t.Helper()

	offer := models.CatalogOffer{
		Title:          "Week by the sea",
		Destination:    "Lisbon",
		Country:        "Portugal",
		City:           "Lisbon",
		HotelName:      "Hotel Atlantico",
		PricePerPerson: price,
		Amenities:      amenities,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("failed to create offer: %v", err)
	}
	return offer
}

func setGroupStatus(t *testing.T, db *gorm.DB, groupID uint, status models.GroupStatus) {
	t.Helper()

	if err := db.Model(&models.Group{}).Where("id = ?", groupID).Update("status", status).Error; err != nil {
		t.Fatalf("failed to set group status: %v", err)
	}
}
