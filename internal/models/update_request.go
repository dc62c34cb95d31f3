package models

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the review state of a UserUpdateRequest.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// UserUpdateRequest is a change to a user's account or profile awaiting review.
// Once Status leaves pending the request is never modified again.
type UserUpdateRequest struct {
	ID           string
	UserID       string
	Changes      ProfileChanges
	Status       RequestStatus
	Comment      *string
	ReviewedByID *string
	ReviewedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPending reports whether the request still awaits review.
func (r *UserUpdateRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// NewUserUpdateRequest returns a pending request for userID. A blank comment is stored as NULL.
func NewUserUpdateRequest(userID string, changes ProfileChanges, comment string) *UserUpdateRequest {
	return &UserUpdateRequest{
		UserID:  userID,
		Changes: changes,
		Status:  RequestStatusPending,
		Comment: OptionalString(comment),
	}
}

// ParseRequestStatus accepts the status name in any case.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch enumKey(s) {
	case "pending":
		return RequestStatusPending, nil
	case "approved":
		return RequestStatusApproved, nil
	case "rejected":
		return RequestStatusRejected, nil
	}
	return "", fmt.Errorf("unknown request status %q: %w", s, ErrInvalidInput)
}

// PendingFilter narrows a listing of pending requests.
type PendingFilter struct {
	UserID string
	Limit  int
	Offset int
}

// OptionalString returns nil for blank input and a pointer to the trimmed value otherwise.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
