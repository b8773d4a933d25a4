package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
)

// Ensure UserStore implements store.UserStore
var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts a user, mapping a duplicate username to store.ErrUsernameTaken
func (s *UserStore) CreateUser(ctx context.Context, user *model.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return store.ErrUsernameTaken
	}
	return err
}

// GetUserByUsername looks a user up by username
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	tx := s.db.WithContext(ctx).Where("username = ?", username).Take(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}
	return &user, nil
}

// GetUserByID looks a user up by primary key
func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	tx := s.db.WithContext(ctx).Where("id = ?", id).Take(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}
	return &user, nil
}

// TouchLastLogin records the time of a successful login
func (s *UserStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}
