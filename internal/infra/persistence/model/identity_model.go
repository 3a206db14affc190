// Package model holds the GORM persistence models. They never leave the infra layer;
// repositories map them to domain entities.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityModel mirrors the 'identities' table. IDs are UUIDv7 generated in Go so the
// model works on any dialect.
type IdentityModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email           string    `gorm:"type:varchar(320);uniqueIndex:idx_identities_email;not null"`
	DisplayName     string    `gorm:"type:varchar(100)"`
	CredentialHash  string    `gorm:"type:varchar(255)"`
	Role            string    `gorm:"type:varchar(20);not null;default:STUDENT"`
	EmailVerifiedAt *time.Time
	IsBlocked       bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}

// BeforeCreate assigns a time-ordered ID when the caller did not.
func (m *IdentityModel) BeforeCreate(_ *gorm.DB) error {
	return assignID(&m.ID)
}

func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}

	v7, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v7

	return nil
}
