package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets integrations (bots, scripts) act as a user without the
// OAuth cookie flow.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id"`
	User       User       `json:"user" gorm:"foreignKey:UserID"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}
