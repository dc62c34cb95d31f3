package services

import (
	"context"

	"github.com/BradenHooton/examhub/internal/database"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/internal/repositories"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
}

// UserProfileRepository defines the interface for profile data access
type UserProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

// UpdateRequestRepository defines the interface for update request data access
type UpdateRequestRepository interface {
	Create(ctx context.Context, req *models.UserUpdateRequest) (*models.UserUpdateRequest, error)
	GetByID(ctx context.Context, id string) (*models.UserUpdateRequest, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.UserUpdateRequest, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, reviewerID string, comment *string) (*models.UserUpdateRequest, error)
	ListPending(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error)
}

// Repositories groups the repositories that take part in one unit of work.
type Repositories struct {
	Users          UserRepository
	Profiles       UserProfileRepository
	UpdateRequests UpdateRequestRepository
}

// Transactor runs fn with repositories that share a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// PgxTransactor is the Postgres Transactor.
type PgxTransactor struct {
	db       *database.DB
	users    *repositories.UserRepository
	profiles *repositories.UserProfileRepository
	requests *repositories.UpdateRequestRepository
}

func NewPgxTransactor(db *database.DB) *PgxTransactor {
	return &PgxTransactor{
		db:       db,
		users:    repositories.NewUserRepository(db),
		profiles: repositories.NewUserProfileRepository(db),
		requests: repositories.NewUpdateRequestRepository(db),
	}
}

// Repositories returns the pool-backed repositories for work outside a transaction.
func (t *PgxTransactor) Repositories() Repositories {
	return Repositories{
		Users:          t.users,
		Profiles:       t.profiles,
		UpdateRequests: t.requests,
	}
}

func (t *PgxTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return t.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, Repositories{
			Users:          t.users.WithTx(tx),
			Profiles:       t.profiles.WithTx(tx),
			UpdateRequests: t.requests.WithTx(tx),
		})
	})
}
