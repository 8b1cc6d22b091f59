package models

import (
	"time"

	"gorm.io/datatypes"
)

// Instance represents a gateway-managed WhatsApp session stored in the database.
type Instance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name  string `gorm:"type:text;not null;uniqueIndex"` // Unique instance name.
	Phone string `gorm:"type:text"`                      // Paired phone number (E.164).
	Token string `gorm:"type:text;not null;uniqueIndex"` // API credential for this instance.

	Webhook datatypes.JSON `gorm:"type:jsonb"` // Webhook delivery configuration.

	Connected bool `gorm:"not null;default:false"` // Last persisted connection state.
	Active    bool `gorm:"not null;default:true"`  // Whether the instance may connect.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
