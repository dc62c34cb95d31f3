package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/examhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(id string) *models.User {
	return &models.User{
		ID:          id,
		Name:        "Alice",
		Email:       "alice@example.com",
		Institution: "Colombo University",
		Role:        models.RoleStudent,
		Status:      models.UserStatusActive,
		Profile:     &models.UserProfile{UserID: id, City: "Kandy", UpdatedAt: testTime()},
		CreatedAt:   testTime(),
		UpdatedAt:   testTime(),
	}
}

func TestUserHandler_GetUser_Self(t *testing.T) {
	svc := &MockUserService{
		GetUserFunc: func(ctx context.Context, id string) (*models.User, error) {
			return testUser(id), nil
		},
	}
	h := NewUserHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req = WithAuthContext(req, "42", models.RoleStudent)
	req = WithChiRouteContext(req, map[string]string{"id": "42"})
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	var resp UserResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "42", resp.ID)
	assert.Equal(t, models.RoleStudent, resp.Role)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Kandy", resp.Profile.City)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.CreatedAt)
}

func TestUserHandler_GetUser_Authorization(t *testing.T) {
	svc := &MockUserService{
		GetUserFunc: func(ctx context.Context, id string) (*models.User, error) {
			return testUser(id), nil
		},
	}

	tests := []struct {
		name       string
		callerID   string
		role       models.Role
		wantStatus int
	}{
		{"other student forbidden", "43", models.RoleStudent, http.StatusForbidden},
		{"reviewer role is not staff", "50", models.RoleReviewer, http.StatusForbidden},
		{"admin allowed", "7", models.RoleAdmin, http.StatusOK},
		{"super admin allowed", "1", models.RoleSuperAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(svc, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
			req = WithAuthContext(req, tt.callerID, tt.role)
			req = WithChiRouteContext(req, map[string]string{"id": "42"})
			w := httptest.NewRecorder()

			h.GetUser(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestUserHandler_GetUser_Unauthenticated(t *testing.T) {
	h := NewUserHandler(&MockUserService{}, testLogger())
	req := WithChiRouteContext(httptest.NewRequest(http.MethodGet, "/users/42", nil), map[string]string{"id": "42"})
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	AssertErrorResponse(t, w, http.StatusForbidden, "forbidden")
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	h := NewUserHandler(&MockUserService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/users/99", nil)
	req = WithAuthContext(req, "7", models.RoleAdmin)
	req = WithChiRouteContext(req, map[string]string{"id": "99"})
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}

func TestUserHandler_GetUser_InternalErrorIsHidden(t *testing.T) {
	svc := &MockUserService{
		GetUserFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, errors.New("pq: password authentication failed for user examhub")
		},
	}
	h := NewUserHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req = WithAuthContext(req, "42", models.RoleStudent)
	req = WithChiRouteContext(req, map[string]string{"id": "42"})
	w := httptest.NewRecorder()

	h.GetUser(w, req)

	AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUserHandler_ListUsers(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*models.User, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.User{testUser("1"), testUser("2")}, nil
		},
	}
	h := NewUserHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/users?limit=5&offset=10", nil)
	w := httptest.NewRecorder()

	h.ListUsers(w, req)

	var resp ListUsersResponse
	AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 10, gotOffset)
}

func TestUserHandler_ListUsers_InvalidPagination(t *testing.T) {
	h := NewUserHandler(&MockUserService{}, testLogger())

	for _, query := range []string{"limit=0", "limit=abc", "limit=101", "offset=-1"} {
		t.Run(query, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/users?"+query, nil))
			AssertErrorResponse(t, w, http.StatusBadRequest, "invalid_input")
		})
	}
}

func TestUserHandler_CreateUser(t *testing.T) {
	var gotActor string
	var gotParams models.NewUserParams
	svc := &MockUserService{
		CreateUserFunc: func(ctx context.Context, actorID string, params models.NewUserParams) (*models.User, error) {
			gotActor, gotParams = actorID, params
			u := testUser("new-id")
			u.Status = models.UserStatusPending
			return u, nil
		},
	}
	h := NewUserHandler(svc, testLogger())

	req := NewTestRequest(t, http.MethodPost, "/users", map[string]string{
		"name":  "Carol",
		"email": "carol@example.com",
		"role":  "Content Editor",
	})
	req = WithAuthContext(req, "7", models.RoleAdmin)
	w := httptest.NewRecorder()

	h.CreateUser(w, req)

	var resp UserResponse
	AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "new-id", resp.ID)
	assert.Equal(t, models.UserStatusPending, resp.Status)
	assert.Equal(t, "7", gotActor)
	assert.Equal(t, "Content Editor", gotParams.Role)
}

func TestUserHandler_CreateUser_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      any
		svcErr    error
		wantCode  int
		wantError string
	}{
		{"missing email", map[string]string{"name": "Carol"}, nil, http.StatusBadRequest, "invalid_input"},
		{"bad email", map[string]string{"name": "Carol", "email": "nope"}, nil, http.StatusBadRequest, "invalid_input"},
		{"not json", "just a string", nil, http.StatusBadRequest, "bad_request"},
		{"duplicate", map[string]string{"name": "Carol", "email": "carol@example.com"}, models.ErrConflict, http.StatusBadRequest, "conflict"},
		{"unknown role", map[string]string{"name": "Carol", "email": "carol@example.com", "role": "root"}, models.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockUserService{
				CreateUserFunc: func(ctx context.Context, actorID string, params models.NewUserParams) (*models.User, error) {
					return nil, tt.svcErr
				},
			}
			h := NewUserHandler(svc, testLogger())

			req := WithAuthContext(NewTestRequest(t, http.MethodPost, "/users", tt.body), "7", models.RoleAdmin)
			w := httptest.NewRecorder()

			h.CreateUser(w, req)

			AssertErrorResponse(t, w, tt.wantCode, tt.wantError)
		})
	}
}
