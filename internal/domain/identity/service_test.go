package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/auth"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

type mockProfiles struct {
	patients []uuid.UUID
	doctors  []uuid.UUID
}

func (m *mockProfiles) CreatePatientProfile(_ context.Context, userID uuid.UUID, _ string) error {
	m.patients = append(m.patients, userID)
	return nil
}

func (m *mockProfiles) CreateDoctorProfile(_ context.Context, userID uuid.UUID, _ string) error {
	m.doctors = append(m.doctors, userID)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockUserRepo, *mockProfiles) {
	users := newMockUserRepo()
	profiles := &mockProfiles{}
	cfg := auth.JWTConfig{SigningKey: []byte("test-key"), Issuer: "clinic", TokenTTL: time.Hour}
	svc := NewService(users, profiles, cfg, passthroughTx{}, zerolog.Nop())
	return svc, users, profiles
}

func registration() RegisterRequest {
	return RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "s3cretpass",
		FullName: "Ada Bell",
	}
}

func TestRegister_DefaultsToPatient(t *testing.T) {
	svc, _, profiles := newTestService()

	user, token, err := svc.Register(context.Background(), registration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != RolePatient {
		t.Errorf("expected patient role, got %s", user.Role)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if len(profiles.patients) != 1 || profiles.patients[0] != user.ID {
		t.Error("expected patient profile created")
	}
	if user.PasswordHash == "s3cretpass" {
		t.Error("expected password to be hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpass")) != nil {
		t.Error("expected hash to verify against the password")
	}
}

func TestRegister_DoctorGetsDoctorProfile(t *testing.T) {
	svc, _, profiles := newTestService()
	req := registration()
	req.Role = RoleDoctor

	user, _, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles.doctors) != 1 || profiles.doctors[0] != user.ID {
		t.Error("expected doctor profile created")
	}
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	svc, _, _ := newTestService()
	req := registration()
	req.Role = RoleAdmin

	if _, _, err := svc.Register(context.Background(), req); err == nil {
		t.Error("expected error for admin self-registration")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := registration()
	dup.Username = "other"
	if _, _, err := svc.Register(context.Background(), dup); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := registration()
	dup.Email = "other@example.com"
	if _, _, err := svc.Register(context.Background(), dup); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _, _ := newTestService()
	req := registration()
	req.Password = "short"

	if _, _, err := svc.Register(context.Background(), req); err == nil {
		t.Error("expected error for short password")
	}
}

func TestLogin_Succeeds(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, token, err := svc.Login(context.Background(), "ada@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "ada@example.com" || token == "" {
		t.Error("expected user and token")
	}
}

func TestLogin_ByUsername(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "ada", "s3cretpass"); err != nil {
		t.Errorf("expected login by username to succeed, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Register(context.Background(), registration()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService()
	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
