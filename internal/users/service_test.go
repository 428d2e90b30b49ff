package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	for _, existing := range f.users {
		if existing.Username == dto.Username {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_users_username"`)
		}
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = active
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = hash
	return nil
}

func testPasswordConfig() config.PasswordConfig {
	// Small argon parameters keep the hash fast under test.
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newUserService(t *testing.T, repo *fakeUserRepo) Service {
	t.Helper()
	svc, err := NewService(repo, testPasswordConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	return coded.Code()
}

func TestCreateUserIssuesTempPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	resp, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "  JDoe ",
		Role:     enums.UserRoleSalesRep,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if resp.User.Username != "jdoe" {
		t.Fatalf("expected normalized username, got %q", resp.User.Username)
	}
	if !resp.User.IsActive {
		t.Fatalf("expected new account to be active")
	}
	if resp.TempPassword == "" {
		t.Fatalf("expected a temporary password")
	}

	stored := repo.users[resp.User.ID]
	ok, err := security.VerifyPassword(resp.TempPassword, stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password does not verify against stored hash: ok=%v err=%v", ok, err)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	if _, err := svc.Create(context.Background(), CreateUserRequest{Username: "jdoe", Role: enums.UserRoleSalesRep}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), CreateUserRequest{Username: "JDOE", Role: enums.UserRoleAdministrator})
	if code := codeOf(t, err); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	_, err := svc.Create(context.Background(), CreateUserRequest{Username: "jdoe", Role: enums.UserRole("janitor")})
	if code := codeOf(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
}

func TestSetActive(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	resp, err := svc.Create(context.Background(), CreateUserRequest{Username: "jdoe", Role: enums.UserRoleSalesRep})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetActive(context.Background(), resp.User.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.users[resp.User.ID].IsActive {
		t.Fatalf("expected account to be deactivated")
	}

	err = svc.SetActive(context.Background(), uuid.New(), false)
	if code := codeOf(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestResetPasswordRotatesHash(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	created, err := svc.Create(context.Background(), CreateUserRequest{Username: "jdoe", Role: enums.UserRoleSalesRep})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldHash := repo.users[created.User.ID].PasswordHash

	reset, err := svc.ResetPassword(context.Background(), created.User.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.TempPassword == created.TempPassword {
		t.Fatalf("expected a fresh temporary password")
	}
	if repo.users[created.User.ID].PasswordHash == oldHash {
		t.Fatalf("expected password hash to rotate")
	}

	ok, err := security.VerifyPassword(reset.TempPassword, repo.users[created.User.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new temp password does not verify: ok=%v err=%v", ok, err)
	}
}
