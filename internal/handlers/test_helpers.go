package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/internal/services"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext authenticates req as a user with the given role, as auth.Middleware would.
func WithAuthContext(req *http.Request, userID string, role models.Role) *http.Request {
	user := &models.User{
		ID:     userID,
		Email:  userID + "@example.com",
		Role:   role,
		Status: models.UserStatusActive,
	}
	return req.WithContext(auth.WithCurrentUser(req.Context(), user))
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserFunc    func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc  func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateUserFunc func(ctx context.Context, actorID string, params models.NewUserParams) (*models.User, error)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserService) CreateUser(ctx context.Context, actorID string, params models.NewUserParams) (*models.User, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrConflict
	}
	return m.CreateUserFunc(ctx, actorID, params)
}

// MockProfileUpdateService implements ProfileUpdateService for testing
type MockProfileUpdateService struct {
	RequestProfileUpdateFunc func(ctx context.Context, in services.RequestProfileUpdateInput) (*models.UserUpdateRequest, error)
	ApproveProfileUpdateFunc func(ctx context.Context, in services.ApproveProfileUpdateInput) (*services.ReviewResult, error)
	GetUpdateRequestFunc     func(ctx context.Context, id string) (*models.UserUpdateRequest, error)
	ListUserRequestsFunc     func(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error)
	ListPendingRequestsFunc  func(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error)
}

func (m *MockProfileUpdateService) RequestProfileUpdate(ctx context.Context, in services.RequestProfileUpdateInput) (*models.UserUpdateRequest, error) {
	if m.RequestProfileUpdateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RequestProfileUpdateFunc(ctx, in)
}

func (m *MockProfileUpdateService) ApproveProfileUpdate(ctx context.Context, in services.ApproveProfileUpdateInput) (*services.ReviewResult, error) {
	if m.ApproveProfileUpdateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.ApproveProfileUpdateFunc(ctx, in)
}

func (m *MockProfileUpdateService) GetUpdateRequest(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	if m.GetUpdateRequestFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUpdateRequestFunc(ctx, id)
}

func (m *MockProfileUpdateService) ListUserRequests(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error) {
	if m.ListUserRequestsFunc == nil {
		return []*models.UserUpdateRequest{}, nil
	}
	return m.ListUserRequestsFunc(ctx, userID)
}

func (m *MockProfileUpdateService) ListPendingRequests(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error) {
	if m.ListPendingRequestsFunc == nil {
		return []*models.UserUpdateRequest{}, nil
	}
	return m.ListPendingRequestsFunc(ctx, filter)
}

// MockHealthChecker returns Err from every check.
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
