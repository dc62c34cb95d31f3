package auth

import (
	"fmt"
	"time"

	"github.com/BradenHooton/examhub/internal/config"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeAccess = "access"

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret            []byte
	issuer            string
	accessTokenExpiry time.Duration
	now               func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:            []byte(cfg.JWTSecret),
		issuer:            cfg.Issuer,
		accessTokenExpiry: cfg.AccessTokenExpiry,
		now:               time.Now,
	}
}

// GenerateAccessToken creates a short-lived access token with JTI
func (tm *TokenManager) GenerateAccessToken(userID, email string) (string, error) {
	return tm.GenerateAccessTokenWithExpiry(userID, email, tm.accessTokenExpiry)
}

// GenerateAccessTokenWithExpiry is GenerateAccessToken with an explicit lifetime.
func (tm *TokenManager) GenerateAccessTokenWithExpiry(userID, email string, expiry time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required: %w", models.ErrInvalidInput)
	}
	if expiry <= 0 {
		return "", fmt.Errorf("token expiry must be positive: %w", models.ErrInvalidInput)
	}

	now := tm.now()
	claims := &models.TokenClaims{
		Type:   tokenTypeAccess,
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    tm.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != tokenTypeAccess {
		return nil, fmt.Errorf("invalid token type %q: %w", claims.Type, models.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("invalid token: missing user id: %w", models.ErrUnauthorized)
	}

	return claims, nil
}
