package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispensary is a wholesale client or prospect.
type Dispensary struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	LicenseNumber string    `gorm:"column:license_number;not null;uniqueIndex"`
	ContactPerson *string   `gorm:"column:contact_person"`
	ContactEmail  *string   `gorm:"column:contact_email"`
	ContactPhone  *string   `gorm:"column:contact_phone"`
	Address       *string   `gorm:"column:address"`
	Notes         *string   `gorm:"column:notes"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
