package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
)

// UserDTO is the API-safe projection of a user account.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Username  string         `json:"username"`
	Role      enums.UserRole `json:"role"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FromModel converts a persisted user into its DTO form.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// CreateUserDTO captures the fields needed to provision an account.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	Role         enums.UserRole
}

// ToModel builds the persistence model for a new user.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		IsActive:     true,
	}
}
