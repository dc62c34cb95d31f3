package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/examhub/internal/database"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const updateRequestColumns = `id, user_id, changes, status, comment, reviewed_by_id, reviewed_at, created_at, updated_at`

// UpdateRequestRepository handles user_update_requests data access
type UpdateRequestRepository struct {
	db database.Querier
}

func NewUpdateRequestRepository(db *database.DB) *UpdateRequestRepository {
	return &UpdateRequestRepository{db: db.Pool}
}

func (r *UpdateRequestRepository) WithTx(tx pgx.Tx) *UpdateRequestRepository {
	return &UpdateRequestRepository{db: tx}
}

func scanUpdateRequestRow(scanner rowScanner) (*models.UserUpdateRequest, error) {
	var req models.UserUpdateRequest
	var changes []byte

	err := scanner.Scan(
		&req.ID, &req.UserID, &changes, &req.Status, &req.Comment,
		&req.ReviewedByID, &req.ReviewedAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if err := json.Unmarshal(changes, &req.Changes); err != nil {
		return nil, fmt.Errorf("failed to decode changes for request %s: %w", req.ID, err)
	}

	return &req, nil
}

func scanUpdateRequestRows(rows pgx.Rows) ([]*models.UserUpdateRequest, error) {
	defer rows.Close()

	requests := make([]*models.UserUpdateRequest, 0)

	for rows.Next() {
		req, err := scanUpdateRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan update request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating update request rows: %w", err)
	}

	return requests, nil
}

// Create inserts a pending request. A second pending request for the same user
// violates ux_user_update_requests_one_pending and surfaces as models.ErrConflict.
func (r *UpdateRequestRepository) Create(ctx context.Context, req *models.UserUpdateRequest) (*models.UserUpdateRequest, error) {
	changes, err := json.Marshal(req.Changes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode changes: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO user_update_requests (id, user_id, changes, status, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + updateRequestColumns

	return scanUpdateRequestRow(r.db.QueryRow(ctx, query,
		uuid.New().String(), req.UserID, changes, models.RequestStatusPending, req.Comment, now,
	))
}

func (r *UpdateRequestRepository) GetByID(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	query := `SELECT ` + updateRequestColumns + ` FROM user_update_requests WHERE id = $1`
	return scanUpdateRequestRow(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate locks the request row until the surrounding transaction ends.
func (r *UpdateRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	query := `SELECT ` + updateRequestColumns + ` FROM user_update_requests WHERE id = $1 FOR UPDATE`
	return scanUpdateRequestRow(r.db.QueryRow(ctx, query, id))
}

// GetByUserID returns every request of the user, newest first.
func (r *UpdateRequestRepository) GetByUserID(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error) {
	query := `SELECT ` + updateRequestColumns + ` FROM user_update_requests WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query update requests: %w", database.MapPostgresError(err))
	}

	return scanUpdateRequestRows(rows)
}

// UpdateStatus moves a pending request to a terminal status. Only pending rows are
// touched, so a request that was already reviewed yields models.ErrInvalidState.
// A nil comment keeps the one given at submission.
func (r *UpdateRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, reviewerID string, comment *string) (*models.UserUpdateRequest, error) {
	now := time.Now()

	query := `
		UPDATE user_update_requests
		SET status = $2, reviewed_by_id = $3, reviewed_at = $4, comment = COALESCE($5, comment), updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + updateRequestColumns

	req, err := scanUpdateRequestRow(r.db.QueryRow(ctx, query, id, status, reviewerID, now, comment))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_update_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, database.MapPostgresError(err)
	}
	if exists {
		return nil, fmt.Errorf("update request %s already processed: %w", id, models.ErrInvalidState)
	}
	return nil, models.ErrNotFound
}

// ListPending returns pending requests oldest first, optionally for one user.
func (r *UpdateRequestRepository) ListPending(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error) {
	query := `
		SELECT ` + updateRequestColumns + `
		FROM user_update_requests
		WHERE status = 'pending' AND ($1 = '' OR user_id::text = $1)
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", database.MapPostgresError(err))
	}

	return scanUpdateRequestRows(rows)
}
