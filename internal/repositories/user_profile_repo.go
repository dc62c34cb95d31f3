package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/examhub/internal/database"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `user_id, avatar_url, bio, address, city, state, country, postal_code, created_at, updated_at`

// UserProfileRepository handles the 1:1 profile rows keyed by user_id
type UserProfileRepository struct {
	db database.Querier
}

func NewUserProfileRepository(db *database.DB) *UserProfileRepository {
	return &UserProfileRepository{db: db.Pool}
}

func (r *UserProfileRepository) WithTx(tx pgx.Tx) *UserProfileRepository {
	return &UserProfileRepository{db: tx}
}

func scanProfileRow(scanner rowScanner) (*models.UserProfile, error) {
	var p models.UserProfile

	err := scanner.Scan(
		&p.UserID, &p.AvatarURL, &p.Bio, &p.Address, &p.City,
		&p.State, &p.Country, &p.PostalCode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

func (r *UserProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = $1`
	return scanProfileRow(r.db.QueryRow(ctx, query, userID))
}

// Save upserts the profile on user_id. created_at is preserved on update.
func (r *UserProfileRepository) Save(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	now := time.Now()

	query := `
		INSERT INTO user_profiles (user_id, avatar_url, bio, address, city, state, country, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			avatar_url  = EXCLUDED.avatar_url,
			bio         = EXCLUDED.bio,
			address     = EXCLUDED.address,
			city        = EXCLUDED.city,
			state       = EXCLUDED.state,
			country     = EXCLUDED.country,
			postal_code = EXCLUDED.postal_code,
			updated_at  = EXCLUDED.updated_at
		RETURNING ` + profileColumns

	return scanProfileRow(r.db.QueryRow(ctx, query,
		profile.UserID, profile.AvatarURL, profile.Bio, profile.Address, profile.City,
		profile.State, profile.Country, profile.PostalCode, now,
	))
}
