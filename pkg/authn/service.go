package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/identity"
	"github.com/Unknown-086/GhostSwitch/pkg/model"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
)

// Service registers users, logs them in and validates their tokens.
type Service struct {
	users    store.UserStore
	sessions *session.Service
	hasher   Hasher
	now      func() time.Time
	log      *logrus.Entry
}

// NewService wires the credential service.
func NewService(users store.UserStore, sessions *session.Service, hasher Hasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		now:      time.Now,
		log:      logrus.WithField("component", "authn"),
	}
}

// Register creates a user after checking the username and password policy.
// Nothing is written when validation fails.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, usernameTaken()
	case !errors.Is(err, store.ErrUserNotFound):
		return nil, fmt.Errorf("look up username: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: s.hasher.Hash(password, salt),
		Salt:         salt,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost the race against a concurrent registration of the same name.
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, usernameTaken()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return user, nil
}

// Login verifies a username and password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*session.Token, *model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Spend the same hashing work as a real comparison.
			VerifyPassword(password, "", "")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("look up user: %w", err)
	}

	if !VerifyPassword(password, user.Salt, user.PasswordHash) {
		s.log.WithField("user_id", user.ID).Info("Login rejected")
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("record last login: %w", err)
	}
	user.LastLogin = &now

	tok, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return nil, nil, err
	}

	s.log.WithField("user_id", user.ID).Info("Login succeeded")
	return tok, user, nil
}

// Validate verifies a bearer token and re-reads its user, so a deleted user
// is rejected even while the token is otherwise valid.
func (s *Service) Validate(ctx context.Context, token string) (*identity.Identity, error) {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("look up token user: %w", err)
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return identity.New(user.ID, user.Username, issuedAt, claims.ExpiresAt.Time), nil
}

func usernameTaken() error {
	return &ValidationError{Code: UsernameTaken, Message: "Username already exists"}
}
