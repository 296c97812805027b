package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type Service struct {
	users    Repository
	profiles ProfileCreator
	jwtCfg   auth.JWTConfig
	tx       db.TxRunner
	log      zerolog.Logger
}

func NewService(users Repository, profiles ProfileCreator, jwtCfg auth.JWTConfig,
	tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		jwtCfg:   jwtCfg,
		tx:       tx,
		log:      log.With().Str("component", "identity").Logger(),
	}
}

// Register creates the user and their role profile in one transaction and
// returns a signed token so the client is logged in immediately.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	if req.Username == "" || req.Email == "" || req.FullName == "" {
		return nil, "", fmt.Errorf("username, email and full name are required")
	}
	if len(req.Password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}
	if req.Role == "" {
		req.Role = RolePatient
	}
	if !registrableRoles[req.Role] {
		return nil, "", fmt.Errorf("invalid role: %s", req.Role)
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if user.Role == RoleDoctor {
			return s.profiles.CreateDoctorProfile(ctx, user.ID, req.FullName)
		}
		return s.profiles.CreatePatientProfile(ctx, user.ID, req.FullName)
	})
	if err != nil {
		return nil, "", err
	}

	token, err := auth.IssueToken(s.jwtCfg, user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("user registered")
	return user, token, nil
}

// Login checks the credentials and returns a fresh token. The identifier may
// be either the email or the username.
func (s *Service) Login(ctx context.Context, identifier, password string) (*User, string, error) {
	user, err := s.users.GetByEmail(ctx, identifier)
	if errors.Is(err, ErrNotFound) {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := auth.IssueToken(s.jwtCfg, user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}
