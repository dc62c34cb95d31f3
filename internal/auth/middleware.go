package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/examhub/internal/models"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
	"github.com/BradenHooton/examhub/pkg/logger"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
	// CurrentUserContextKey holds the *models.User loaded for the token subject.
	CurrentUserContextKey contextKey = "current_user"
)

// UserRepository is the lookup the middleware needs to resolve the token subject.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Middleware authenticates bearer tokens and enforces roles.
type Middleware struct {
	tokens *TokenManager
	users  UserRepository
	audit  *logger.AuditLogger
	ipCfg  *pkghttp.IPConfig
}

func NewMiddleware(tokens *TokenManager, users UserRepository, audit *logger.AuditLogger, ipCfg *pkghttp.IPConfig) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		audit:  audit,
		ipCfg:  ipCfg,
	}
}

// Authenticate validates the bearer token, loads the user it names and injects both into the context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, r, "", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			m.reject(w, r, "", "invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			m.reject(w, r, "", "invalid or expired token")
			return
		}

		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				m.reject(w, r, claims.UserID, "user not found")
				return
			}
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		ctx = context.WithValue(ctx, CurrentUserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows the request through only when the authenticated user is active and holds one of roles.
func (m *Middleware) RequireRole(roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetCurrentUser(r)
			if user == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			if user.Status != models.UserStatusActive || !hasRole(user.Role, roles) {
				m.audit.Log(r.Context(), logger.AuditEvent{
					EventType:     logger.EventAccessDenied,
					ActorID:       user.ID,
					IPAddress:     pkghttp.ExtractClientIP(r, m.ipCfg),
					FailureReason: "insufficient permissions",
					Metadata:      map[string]string{"path": r.URL.Path, "role": string(user.Role)},
				})
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, userID, reason string) {
	m.audit.Log(r.Context(), logger.AuditEvent{
		EventType:     logger.EventAuthFailed,
		ActorID:       userID,
		IPAddress:     pkghttp.ExtractClientIP(r, m.ipCfg),
		FailureReason: reason,
	})
	pkghttp.WriteUnauthorized(w, "Authentication required")
}

func hasRole(role models.Role, allowed []models.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetCurrentUser returns the user loaded by Authenticate, or nil.
func GetCurrentUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(CurrentUserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithCurrentUser returns ctx carrying user and matching claims, as Authenticate would.
func WithCurrentUser(ctx context.Context, user *models.User) context.Context {
	claims := &models.TokenClaims{Type: tokenTypeAccess, UserID: user.ID, Email: user.Email}
	ctx = context.WithValue(ctx, UserContextKey, claims)
	return context.WithValue(ctx, CurrentUserContextKey, user)
}
