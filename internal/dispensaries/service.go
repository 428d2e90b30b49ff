package dispensaries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

// Service exposes dispensary management.
type Service interface {
	Create(ctx context.Context, req CreateDispensaryRequest) (*DispensaryDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateDispensaryRequest) (*DispensaryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*DispensaryDTO, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
}

type repository interface {
	Create(ctx context.Context, dispensary *models.Dispensary) (*models.Dispensary, error)
	Update(ctx context.Context, dispensary *models.Dispensary) (*models.Dispensary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dispensary, error)
	List(ctx context.Context, query ListQuery) ([]models.Dispensary, string, error)
	CountOrders(ctx context.Context, id uuid.UUID) (int64, error)
}

type service struct {
	repo repository
}

// NewService builds the dispensary service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispensary repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, req CreateDispensaryRequest) (*DispensaryDTO, error) {
	dispensary := &models.Dispensary{
		Name:          strings.TrimSpace(req.Name),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		Address:       req.Address,
		Notes:         req.Notes,
	}
	if dispensary.Name == "" || dispensary.LicenseNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and license number are required")
	}

	created, err := s.repo.Create(ctx, dispensary)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_dispensaries_license_number") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "license number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create dispensary")
	}
	dto := fromModel(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateDispensaryRequest) (*DispensaryDTO, error) {
	dispensary, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		dispensary.Name = name
	}
	if req.ContactPerson != nil {
		dispensary.ContactPerson = req.ContactPerson
	}
	if req.ContactEmail != nil {
		dispensary.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != nil {
		dispensary.ContactPhone = req.ContactPhone
	}
	if req.Address != nil {
		dispensary.Address = req.Address
	}
	if req.Notes != nil {
		dispensary.Notes = req.Notes
	}

	updated, err := s.repo.Update(ctx, dispensary)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update dispensary")
	}
	dto := fromModel(updated)
	return &dto, nil
}

// Delete removes a dispensary with no order history. Dispensaries that have
// placed orders are part of the immutable sales record and cannot be deleted.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	orderCount, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count dispensary orders")
	}
	if orderCount > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "dispensary has order history and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete dispensary")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DispensaryDTO, error) {
	dispensary, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(dispensary)
	return &dto, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list dispensaries")
	}
	result := &ListResult{
		Dispensaries: make([]DispensaryDTO, 0, len(rows)),
		NextCursor:   nextCursor,
	}
	for i := range rows {
		result.Dispensaries = append(result.Dispensaries, fromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Dispensary, error) {
	dispensary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispensary not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load dispensary")
	}
	return dispensary, nil
}
