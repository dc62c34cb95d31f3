package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/examhub/internal/models"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
)

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone,omitempty"`
	Institution  string            `json:"institution,omitempty"`
	Role         models.Role       `json:"role"`
	Status       models.UserStatus `json:"status"`
	ApprovedByID *string           `json:"approvedById,omitempty"`
	Profile      *ProfileResponse  `json:"profile,omitempty"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt"`
}

type ProfileResponse struct {
	AvatarURL  string `json:"avatarUrl"`
	Bio        string `json:"bio"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	UpdatedAt  string `json:"updatedAt"`
}

// UpdateRequestResponse represents a profile update request in the HTTP response
type UpdateRequestResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"userId"`
	Changes      models.ProfileChanges `json:"changes"`
	Status       models.RequestStatus  `json:"status"`
	Comment      *string               `json:"comment,omitempty"`
	ReviewedByID *string               `json:"reviewedById,omitempty"`
	ReviewedAt   *string               `json:"reviewedAt,omitempty"`
	CreatedAt    string                `json:"createdAt"`
	UpdatedAt    string                `json:"updatedAt"`
}

// ReviewResponse is returned after a review decision.
type ReviewResponse struct {
	Request *UpdateRequestResponse `json:"request"`
	User    *UserResponse          `json:"user"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func userToResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Phone:        user.Phone,
		Institution:  user.Institution,
		Role:         user.Role,
		Status:       user.Status,
		ApprovedByID: user.ApprovedByID,
		CreatedAt:    formatTime(user.CreatedAt),
		UpdatedAt:    formatTime(user.UpdatedAt),
	}
	if p := user.Profile; p != nil {
		resp.Profile = &ProfileResponse{
			AvatarURL:  p.AvatarURL,
			Bio:        p.Bio,
			Address:    p.Address,
			City:       p.City,
			State:      p.State,
			Country:    p.Country,
			PostalCode: p.PostalCode,
			UpdatedAt:  formatTime(p.UpdatedAt),
		}
	}
	return resp
}

func updateRequestToResponse(req *models.UserUpdateRequest) *UpdateRequestResponse {
	resp := &UpdateRequestResponse{
		ID:           req.ID,
		UserID:       req.UserID,
		Changes:      req.Changes,
		Status:       req.Status,
		Comment:      req.Comment,
		ReviewedByID: req.ReviewedByID,
		CreatedAt:    formatTime(req.CreatedAt),
		UpdatedAt:    formatTime(req.UpdatedAt),
	}
	if req.ReviewedAt != nil {
		s := formatTime(*req.ReviewedAt)
		resp.ReviewedAt = &s
	}
	return resp
}

func updateRequestsToResponse(reqs []*models.UserUpdateRequest) []*UpdateRequestResponse {
	out := make([]*UpdateRequestResponse, len(reqs))
	for i, req := range reqs {
		out[i] = updateRequestToResponse(req)
	}
	return out
}

// writeServiceError maps service errors onto the JSON error envelope.
// Client errors carry the service message; anything unexpected is logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, err.Error())
	case errors.Is(err, models.ErrInvalidInput):
		pkghttp.WriteInvalidInput(w, err.Error())
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, err.Error())
	case errors.Is(err, models.ErrInvalidState):
		pkghttp.WriteInvalidState(w, err.Error())
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication required")
	default:
		if !errors.Is(err, models.ErrInternalServer) {
			logger.ErrorContext(r.Context(), "unhandled error", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
