package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the account role of a user.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdmin         Role = "admin"
	RoleContentEditor Role = "content_editor"
	RoleReviewer      Role = "reviewer"
	RoleAnalyst       Role = "analyst"
	RoleStudent       Role = "student"
)

// UserStatus is the account status of a user.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusRejected  UserStatus = "rejected"
)

var roles = map[string]Role{
	"superadmin":    RoleSuperAdmin,
	"admin":         RoleAdmin,
	"contenteditor": RoleContentEditor,
	"reviewer":      RoleReviewer,
	"analyst":       RoleAnalyst,
	"student":       RoleStudent,
}

var userStatuses = map[string]UserStatus{
	"pending":   UserStatusPending,
	"active":    UserStatusActive,
	"inactive":  UserStatusInactive,
	"suspended": UserStatusSuspended,
	"rejected":  UserStatusRejected,
}

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Institution  string
	Role         Role
	Status       UserStatus
	ApprovedByID *string
	Profile      *UserProfile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaff reports whether the user may review other users' requests.
func (u *User) IsStaff() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleAdmin
}

type UserProfile struct {
	UserID     string
	AvatarURL  string
	Bio        string
	Address    string
	City       string
	State      string
	Country    string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewUserParams holds the raw attributes of a user about to be registered.
type NewUserParams struct {
	Name        string
	Email       string
	Phone       string
	Institution string
	Role        string
}

// NewUser normalizes raw registration input into a User.
// Email is trimmed and lower-cased, role defaults to student and status is always pending.
func NewUser(p NewUserParams) (*User, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}

	email := NormalizeEmail(p.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidInput)
	}

	role := RoleStudent
	if strings.TrimSpace(p.Role) != "" {
		parsed, err := ParseRole(p.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	return &User{
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(p.Phone),
		Institution: strings.TrimSpace(p.Institution),
		Role:        role,
		Status:      UserStatusPending,
	}, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseRole accepts any of "Super Admin", "super_admin", "SuperAdmin" or "super-admin".
func ParseRole(s string) (Role, error) {
	if role, ok := roles[enumKey(s)]; ok {
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q: %w", s, ErrInvalidInput)
}

// ParseUserStatus accepts the status name in any case.
func ParseUserStatus(s string) (UserStatus, error) {
	if status, ok := userStatuses[enumKey(s)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown user status %q: %w", s, ErrInvalidInput)
}

// enumKey folds case and drops separators so display names and stored values compare equal.
func enumKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
