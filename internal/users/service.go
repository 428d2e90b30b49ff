package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/db"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/security"
)

const tempPasswordLength = 12

// Service exposes administrator account management.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*CreatedUserResponse, error)
	List(ctx context.Context) ([]UserDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ResetPassword(ctx context.Context, id uuid.UUID) (*CreatedUserResponse, error)
}

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	Username string         `json:"username" validate:"required,min=3,max=64"`
	Role     enums.UserRole `json:"role" validate:"required"`
}

// CreatedUserResponse returns the account plus its one-time temporary password.
type CreatedUserResponse struct {
	User         *UserDTO `json:"user"`
	TempPassword string   `json:"temp_password"`
}

type repository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type service struct {
	repo  repository
	pwCfg config.PasswordConfig
}

// NewService builds the user management service.
func NewService(repo repository, pwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{repo: repo, pwCfg: pwCfg}, nil
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (*CreatedUserResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return &CreatedUserResponse{
		User:         FromModel(user),
		TempPassword: tempPassword,
	}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.findUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, id uuid.UUID) (*CreatedUserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}

	return &CreatedUserResponse{
		User:         FromModel(user),
		TempPassword: tempPassword,
	}, nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}
