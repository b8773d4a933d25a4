package store

import (
	"context"
	"errors"
	"time"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
)

// ErrUserNotFound is returned when no user matches the lookup
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when creating a user whose username exists
var ErrUsernameTaken = errors.New("username already exists")

// UserStore abstracts account storage
type UserStore interface {
	// CreateUser inserts the user and fills in its ID.
	// Returns ErrUsernameTaken if the username is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByUsername returns ErrUserNotFound if there is no such user.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// GetUserByID returns ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}
