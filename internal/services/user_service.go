package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/pkg/logger"
)

// UserService handles user business logic
type UserService struct {
	repos  Repositories
	tx     Transactor
	logger *slog.Logger
	audit  *logger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repos Repositories, tx Transactor, log *slog.Logger) *UserService {
	return &UserService{
		repos:  repos,
		tx:     tx,
		logger: log,
		audit:  logger.NewAuditLogger(log),
	}
}

// GetUser retrieves a user by ID together with the profile, if any
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := loadUserWithProfile(ctx, s.repos, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, err
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// ListUsers retrieves a list of users with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repos.Users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// CreateUser registers a pending user and an empty profile in one transaction
func (s *UserService) CreateUser(ctx context.Context, actorID string, params models.NewUserParams) (*models.User, error) {
	user, err := models.NewUser(params)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repos.Users.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		s.logger.Info("user already exists", slog.String("email", logger.SanitizedEmail(user.Email)))
		return nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var created *models.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		saved, err := repos.Users.Save(ctx, user)
		if err != nil {
			return err
		}

		profile, err := repos.Profiles.Save(ctx, &models.UserProfile{UserID: saved.ID})
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		saved.Profile = profile
		created = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("user_id", created.ID), slog.String("role", string(created.Role)))
	s.audit.Log(ctx, logger.AuditEvent{
		EventType:    logger.EventUserCreated,
		ActorID:      actorID,
		TargetUserID: created.ID,
		Success:      true,
		Metadata:     map[string]string{"role": string(created.Role)},
	})

	return created, nil
}

// EnsureSuperAdmin creates an active super admin with the given email unless a user with that email exists.
// It reports whether a user was created.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, email, name string) (bool, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return false, fmt.Errorf("admin email is required: %w", models.ErrInvalidInput)
	}

	_, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("admin user already exists", slog.String("email", logger.SanitizedEmail(email)))
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if name == "" {
		name = "Admin"
	}
	admin := &models.User{
		Name:   name,
		Email:  email,
		Role:   models.RoleSuperAdmin,
		Status: models.UserStatusActive,
	}

	var created *models.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		saved, err := repos.Users.Save(ctx, admin)
		if err != nil {
			return err
		}
		if _, err := repos.Profiles.Save(ctx, &models.UserProfile{UserID: saved.ID}); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		created = saved
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("admin user created", slog.String("user_id", created.ID))
	s.audit.Log(ctx, logger.AuditEvent{
		EventType:    logger.EventUserCreated,
		TargetUserID: created.ID,
		Success:      true,
		Metadata:     map[string]string{"role": string(created.Role), "source": "bootstrap"},
	})
	return true, nil
}
