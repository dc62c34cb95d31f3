package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/internal/services"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ProfileUpdateService defines the profile update workflow used by the handlers
type ProfileUpdateService interface {
	RequestProfileUpdate(ctx context.Context, in services.RequestProfileUpdateInput) (*models.UserUpdateRequest, error)
	ApproveProfileUpdate(ctx context.Context, in services.ApproveProfileUpdateInput) (*services.ReviewResult, error)
	GetUpdateRequest(ctx context.Context, id string) (*models.UserUpdateRequest, error)
	ListUserRequests(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error)
	ListPendingRequests(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error)
}

// UpdateRequestHandler serves profile update submission and review.
type UpdateRequestHandler struct {
	service ProfileUpdateService
	logger  *slog.Logger
}

func NewUpdateRequestHandler(service ProfileUpdateService, logger *slog.Logger) *UpdateRequestHandler {
	return &UpdateRequestHandler{
		service: service,
		logger:  logger,
	}
}

// SubmitUpdateRequest is the body of POST /users/{id}/update-requests.
// Changes stays a raw object: unknown keys are dropped by the service, not rejected here.
type SubmitUpdateRequest struct {
	Changes map[string]any `json:"changes" validate:"required"`
	Comment string         `json:"comment"`
}

// ReviewUpdateRequest is the body of POST /admin/update-requests/{id}/review.
type ReviewUpdateRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Comment string `json:"comment"`
}

type ListUpdateRequestsResponse struct {
	UpdateRequests []*UpdateRequestResponse `json:"updateRequests"`
	Total          int                      `json:"total"`
}

// Submit records a pending profile update for the user in the path.
//
// @Router /users/{id}/update-requests [post]
func (h *UpdateRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !canAccessUser(r, userID) {
		pkghttp.WriteForbidden(w, "You cannot submit updates for this user")
		return
	}

	var req SubmitUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}

	created, err := h.service.RequestProfileUpdate(r.Context(), services.RequestProfileUpdateInput{
		UserID:  userID,
		Changes: req.Changes,
		Comment: req.Comment,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, updateRequestToResponse(created))
}

// ListForUser returns the update requests of the user in the path, newest first.
// An optional status query parameter narrows the list.
//
// @Router /users/{id}/update-requests [get]
func (h *UpdateRequestHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !canAccessUser(r, userID) {
		pkghttp.WriteForbidden(w, "You cannot access this resource")
		return
	}

	var status models.RequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseRequestStatus(raw)
		if err != nil {
			pkghttp.WriteInvalidInput(w, "status must be one of pending, approved, rejected")
			return
		}
		status = parsed
	}

	requests, err := h.service.ListUserRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if status != "" {
		requests = filterByStatus(requests, status)
	}

	pkghttp.WriteJSON(w, http.StatusOK, &ListUpdateRequestsResponse{
		UpdateRequests: updateRequestsToResponse(requests),
		Total:          len(requests),
	})
}

func filterByStatus(requests []*models.UserUpdateRequest, status models.RequestStatus) []*models.UserUpdateRequest {
	out := make([]*models.UserUpdateRequest, 0, len(requests))
	for _, req := range requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out
}

// ListPending returns pending requests oldest first, optionally for a single user.
//
// @Router /admin/update-requests [get]
func (h *UpdateRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0, 0, 1000)
	if err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}
	offset, err := intQuery(r, "offset", 0, 0, 100000)
	if err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}

	requests, err := h.service.ListPendingRequests(r.Context(), models.PendingFilter{
		UserID: r.URL.Query().Get("user_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &ListUpdateRequestsResponse{
		UpdateRequests: updateRequestsToResponse(requests),
		Total:          len(requests),
	})
}

// Get returns one update request in any state.
//
// @Router /admin/update-requests/{id} [get]
func (h *UpdateRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.GetUpdateRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, updateRequestToResponse(req))
}

// Review approves or rejects a pending request. The reviewer is the authenticated caller.
//
// @Router /admin/update-requests/{id}/review [post]
func (h *UpdateRequestHandler) Review(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ReviewUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteInvalidInput(w, err.Error())
		return
	}

	result, err := h.service.ApproveProfileUpdate(r.Context(), services.ApproveProfileUpdateInput{
		RequestID:  chi.URLParam(r, "id"),
		ReviewerID: claims.UserID,
		Approve:    *req.Approve,
		Comment:    req.Comment,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &ReviewResponse{
		Request: updateRequestToResponse(result.Request),
		User:    userToResponse(result.User),
	})
}
