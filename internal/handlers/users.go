package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/models"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateUser(ctx context.Context, actorID string, params models.NewUserParams) (*models.User, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Institution string `json:"institution" validate:"omitempty,max=255"`
	Role        string `json:"role"`
}

// ListUsersResponse represents a list of users
type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
	Total int             `json:"total"`
}

// GetUser returns a user with their profile. Users may read themselves; staff may read anyone.
//
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !canAccessUser(r, userID) {
		pkghttp.WriteForbidden(w, "You cannot access this resource")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userToResponse(user))
}

// ListUsers retrieves a page of users
//
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 20, 1, 100)
	if err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}
	offset, err := intQuery(r, "offset", 0, 0, 100000)
	if err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response := &ListUsersResponse{
		Users: make([]*UserResponse, len(users)),
		Total: len(users),
	}
	for i, user := range users {
		response.Users[i] = userToResponse(user)
	}

	pkghttp.WriteJSON(w, http.StatusOK, response)
}

// CreateUser registers a new pending user
//
// @Router /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}

	var actorID string
	if claims := auth.GetUserFromContext(r); claims != nil {
		actorID = claims.UserID
	}

	user, err := h.service.CreateUser(r.Context(), actorID, models.NewUserParams{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Institution: req.Institution,
		Role:        req.Role,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, userToResponse(user))
}

// canAccessUser allows the authenticated user to reach their own records, and staff to reach anyone's.
func canAccessUser(r *http.Request, userID string) bool {
	current := auth.GetCurrentUser(r)
	if current == nil {
		return false
	}
	if current.ID == userID {
		return true
	}
	return current.IsStaff() && current.Status == models.UserStatusActive
}
