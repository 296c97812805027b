package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ProfileCreator sets up the role-specific profile for a freshly registered
// user, in the same transaction as the user row.
type ProfileCreator interface {
	CreatePatientProfile(ctx context.Context, userID uuid.UUID, fullName string) error
	CreateDoctorProfile(ctx context.Context, userID uuid.UUID, fullName string) error
}
