package primary

import (
	"context"
	"time"
)

// UserService defines the primary port for user account operations.
type UserService interface {
	// Bootstrap creates the first admin. It fails once any user exists.
	Bootstrap(ctx context.Context, req CreateUserRequest) (*User, error)

	// CreateUser creates a user account.
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id int64) (*User, error)

	// ListUsers lists users, optionally by role.
	ListUsers(ctx context.Context, role string) ([]*User, error)

	// DeactivateUser disables an account.
	DeactivateUser(ctx context.Context, id int64) error

	// ActivateUser re-enables an account.
	ActivateUser(ctx context.Context, id int64) error
}

// CreateUserRequest contains parameters for creating a user.
type CreateUserRequest struct {
	Username string
	Email    string
	FullName string
	Role     string
}

// User represents a user at the port boundary.
type User struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	Role      string
	IsActive  bool
	CreatedAt time.Time
}
