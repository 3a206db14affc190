package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkedProviderModel mirrors the 'linked_providers' table.
// One provider account maps to one identity, and one identity holds one account per provider.
type LinkedProviderModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	IdentityID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_linked_providers_identity_provider"`
	Provider          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_linked_providers_account;uniqueIndex:idx_linked_providers_identity_provider"`
	ProviderAccountID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_linked_providers_account"`
	CreatedAt         time.Time

	Identity *IdentityModel `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (LinkedProviderModel) TableName() string {
	return "linked_providers"
}

// BeforeCreate assigns a time-ordered ID when the caller did not.
func (m *LinkedProviderModel) BeforeCreate(_ *gorm.DB) error {
	return assignID(&m.ID)
}
