package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"perola.app/academy/internal/auth"
	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, isAdmin bool) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

const MinPasswordLength = 8

type UserService struct {
	dbStore     UserStore
	adminEmails []string
	timeout     time.Duration
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewUserService(db UserStore, adminEmails []string, persistTimeout time.Duration, log *logger.Logger, m *metrics.Metrics) *UserService {
	return &UserService{
		dbStore:     db,
		adminEmails: adminEmails,
		timeout:     persistTimeout,
		log:         log.With("component", "users"),
		metrics:     m,
	}
}

func (s *UserService) Signup(ctx context.Context, email, password string) (*store.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	isAdmin := slices.Contains(s.adminEmails, email)
	var user *store.User
	err = withTimeout(ctx, s.timeout, s.metrics, "create_user", func(ctx context.Context) error {
		var err error
		user, err = s.dbStore.CreateUser(ctx, email, hashedPassword, isAdmin)
		return err
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("email %s: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("user signed up", "user_id", user.ID, "is_admin", isAdmin)
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	email = normalizeEmail(email)
	var user *store.User
	err := withTimeout(ctx, s.timeout, s.metrics, "get_user", func(ctx context.Context) error {
		var err error
		user, err = s.dbStore.GetUserByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*store.User, error) {
	var user *store.User
	err := withTimeout(ctx, s.timeout, s.metrics, "get_user", func(ctx context.Context) error {
		var err error
		user, err = s.dbStore.GetUserByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
