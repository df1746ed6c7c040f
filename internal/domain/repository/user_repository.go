package repository

import (
	"context"
	"errors"

	"usermanagement/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when a write violates the email uniqueness
	// constraint. The store, not the handler's pre-check, is the final
	// arbiter for concurrent registrations racing on the same email.
	ErrEmailTaken = errors.New("email already taken")
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	// Create inserts a new account and fills in ID and timestamps.
	Create(ctx context.Context, u *entity.User, passwordHash string) error
	// GetCredentialByEmail is the only read that exposes the password hash;
	// it exists solely for the login paths.
	GetCredentialByEmail(ctx context.Context, email string) (*entity.Credential, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	// Update persists name/email/phone/profileImage changes. Role and
	// password are deliberately not updatable through this path.
	Update(ctx context.Context, u *entity.User) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Delete(ctx context.Context, id string) error
}
