// Command token mints an access token for an existing user. Operators use it to call the API
// until the platform's login service issues tokens with the same secret and issuer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/config"
	"github.com/BradenHooton/examhub/internal/database"
	"github.com/BradenHooton/examhub/internal/repositories"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	email := flag.String("email", "", "email of the user to mint a token for")
	userID := flag.String("user-id", "", "id of the user (skips the database lookup)")
	expiry := flag.Duration("expiry", 0, "token lifetime (defaults to ACCESS_TOKEN_EXPIRY)")
	flag.Parse()

	if *email == "" && *userID == "" {
		fmt.Fprintln(os.Stderr, "one of -email or -user-id is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	id, mail := *userID, *email
	if id == "" {
		id, err = lookupUserID(cfg, mail, logger)
		if err != nil {
			logger.Error("failed to find user", slog.Any("error", err))
			os.Exit(1)
		}
	}

	lifetime := *expiry
	if lifetime <= 0 {
		lifetime = cfg.Auth.AccessTokenExpiry
	}

	token, err := auth.NewTokenManager(cfg.Auth).GenerateAccessTokenWithExpiry(id, mail, lifetime)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println(token)
}

func lookupUserID(cfg *config.Config, email string, logger *slog.Logger) (string, error) {
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := repositories.NewUserRepository(db).GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user %s: %w", email, err)
	}
	return user.ID, nil
}
