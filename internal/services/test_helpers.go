package services

import (
	"context"
	"time"

	"github.com/BradenHooton/examhub/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc          func(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdateFunc func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc       func(ctx context.Context, email string) (*models.User, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*models.User, error)
	SaveFunc             func(ctx context.Context, user *models.User) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return user, nil
}

// MockUserProfileRepository implements UserProfileRepository for testing
type MockUserProfileRepository struct {
	GetByUserIDFunc func(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveFunc        func(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

func (m *MockUserProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserProfileRepository) Save(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, profile)
	}
	return profile, nil
}

// MockUpdateRequestRepository implements UpdateRequestRepository for testing
type MockUpdateRequestRepository struct {
	CreateFunc           func(ctx context.Context, req *models.UserUpdateRequest) (*models.UserUpdateRequest, error)
	GetByIDFunc          func(ctx context.Context, id string) (*models.UserUpdateRequest, error)
	GetByIDForUpdateFunc func(ctx context.Context, id string) (*models.UserUpdateRequest, error)
	GetByUserIDFunc      func(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error)
	UpdateStatusFunc     func(ctx context.Context, id string, status models.RequestStatus, reviewerID string, comment *string) (*models.UserUpdateRequest, error)
	ListPendingFunc      func(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error)
}

func (m *MockUpdateRequestRepository) Create(ctx context.Context, req *models.UserUpdateRequest) (*models.UserUpdateRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUpdateRequestRepository) GetByID(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUpdateRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockUpdateRequestRepository) GetByUserID(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return []*models.UserUpdateRequest{}, nil
}

func (m *MockUpdateRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, reviewerID string, comment *string) (*models.UserUpdateRequest, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, reviewerID, comment)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUpdateRequestRepository) ListPending(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, filter)
	}
	return []*models.UserUpdateRequest{}, nil
}

// MockTransactor runs fn directly against Repos without a real transaction
type MockTransactor struct {
	Repos                 Repositories
	WithinTransactionFunc func(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if m.WithinTransactionFunc != nil {
		return m.WithinTransactionFunc(ctx, fn)
	}
	return fn(ctx, m.Repos)
}

// NewTestUser builds an active student
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      models.RoleStudent,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithRole builds an active user with the given role
func NewTestUserWithRole(id, email, name string, role models.Role) *models.User {
	user := NewTestUser(id, email, name)
	user.Role = role
	return user
}

// NewTestUpdateRequest builds a request with the given status and changes
func NewTestUpdateRequest(id, userID string, status models.RequestStatus, changes models.ProfileChanges) *models.UserUpdateRequest {
	now := time.Now()
	return &models.UserUpdateRequest{
		ID:        id,
		UserID:    userID,
		Changes:   changes,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
