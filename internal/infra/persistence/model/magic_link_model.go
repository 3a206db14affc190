package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MagicLinkTokenModel mirrors the 'magic_link_tokens' table. Only the SHA-256 hash of the token is stored.
type MagicLinkTokenModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email      string    `gorm:"type:varchar(320);not null;index"`
	TokenHash  string    `gorm:"type:char(64);uniqueIndex;not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (MagicLinkTokenModel) TableName() string {
	return "magic_link_tokens"
}

// BeforeCreate assigns a time-ordered ID when the caller did not.
func (m *MagicLinkTokenModel) BeforeCreate(_ *gorm.DB) error {
	return assignID(&m.ID)
}

// All lists every model managed by AutoMigrate, parents first.
func All() []any {
	return []any{
		&IdentityModel{},
		&LinkedProviderModel{},
		&MagicLinkTokenModel{},
	}
}
