package dispensaries

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// CreateDispensaryRequest registers a new wholesale client.
type CreateDispensaryRequest struct {
	Name          string  `json:"name" validate:"required"`
	LicenseNumber string  `json:"license_number" validate:"required"`
	ContactPerson *string `json:"contact_person,omitempty"`
	ContactEmail  *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone  *string `json:"contact_phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateDispensaryRequest patches dispensary fields. The license number is
// part of the regulatory identity and cannot change.
type UpdateDispensaryRequest struct {
	Name          *string `json:"name,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	ContactEmail  *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone  *string `json:"contact_phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// DispensaryDTO is the API projection of a dispensary.
type DispensaryDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	LicenseNumber string    `json:"license_number"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	ContactEmail  *string   `json:"contact_email,omitempty"`
	ContactPhone  *string   `json:"contact_phone,omitempty"`
	Address       *string   `json:"address,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListQuery bundles pagination and an optional name/license search.
type ListQuery struct {
	Pagination pagination.Params
	Query      string
}

// ListResult is one page of dispensaries.
type ListResult struct {
	Dispensaries []DispensaryDTO `json:"dispensaries"`
	NextCursor   string          `json:"next_cursor,omitempty"`
}

func fromModel(d *models.Dispensary) DispensaryDTO {
	return DispensaryDTO{
		ID:            d.ID,
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		ContactPerson: d.ContactPerson,
		ContactEmail:  d.ContactEmail,
		ContactPhone:  d.ContactPhone,
		Address:       d.Address,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
	}
}
