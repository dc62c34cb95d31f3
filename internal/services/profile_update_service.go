package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/examhub/internal/config"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/internal/observability"
	"github.com/BradenHooton/examhub/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultListLimit = 50

// RequestProfileUpdateInput is the payload of a profile update submission.
type RequestProfileUpdateInput struct {
	UserID  string
	Changes map[string]any
	Comment string
}

// ApproveProfileUpdateInput is a reviewer's decision on a pending request.
type ApproveProfileUpdateInput struct {
	RequestID  string
	ReviewerID string
	Approve    bool
	Comment    string
}

// ReviewResult is the state after a review. User.Profile is set when the user has a profile.
type ReviewResult struct {
	Request *models.UserUpdateRequest
	User    *models.User
}

// ProfileUpdateService implements the profile update approval workflow.
type ProfileUpdateService struct {
	repos   Repositories
	tx      Transactor
	cfg     config.ProfileUpdateConfig
	logger  *slog.Logger
	audit   *logger.AuditLogger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewProfileUpdateService creates a ProfileUpdateService. repos serve reads outside a
// transaction and tx provides the transactional repositories used by reviews.
func NewProfileUpdateService(repos Repositories, tx Transactor, cfg config.ProfileUpdateConfig, log *slog.Logger) *ProfileUpdateService {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = defaultListLimit
	}
	return &ProfileUpdateService{
		repos:  repos,
		tx:     tx,
		cfg:    cfg,
		logger: log,
		audit:  logger.NewAuditLogger(log),
		tracer: observability.NoopTracer(),
	}
}

// WithMetrics sets the collectors the service reports to.
func (s *ProfileUpdateService) WithMetrics(m *observability.Metrics) *ProfileUpdateService {
	s.metrics = m
	return s
}

// WithTracer sets the tracer used for use case spans.
func (s *ProfileUpdateService) WithTracer(t trace.Tracer) *ProfileUpdateService {
	if t != nil {
		s.tracer = t
	}
	return s
}

// RequestProfileUpdate records a pending change request for a user.
// A user may have at most one pending request; a second one fails with models.ErrConflict.
func (s *ProfileUpdateService) RequestProfileUpdate(ctx context.Context, in RequestProfileUpdateInput) (req *models.UserUpdateRequest, err error) {
	userID := strings.TrimSpace(in.UserID)

	ctx, span := s.tracer.Start(ctx, "ProfileUpdateService.RequestProfileUpdate",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() {
		s.metrics.RecordSubmission(outcome(err, "created"))
		observability.EndSpan(span, err)
	}()

	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", models.ErrInvalidInput)
	}
	if len(in.Changes) == 0 {
		return nil, fmt.Errorf("changes must not be empty: %w", models.ErrInvalidInput)
	}

	changes, ignored, err := models.ParseProfileChanges(in.Changes)
	if err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		s.logger.Warn("dropping unrecognized profile update fields",
			slog.String("user_id", userID),
			slog.Any("fields", ignored),
		)
	}
	if changes.IsEmpty() {
		// Still recorded; approving it leaves the user as is.
		s.logger.Warn("profile update request carries no updatable fields", slog.String("user_id", userID))
	}
	if changes.Status != nil && !s.cfg.AllowStatusChange {
		return nil, fmt.Errorf("status cannot be changed through a profile update: %w", models.ErrInvalidInput)
	}
	if err := changes.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkComment(in.Comment); err != nil {
		return nil, err
	}

	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	existing, err := s.repos.UpdateRequests.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list update requests", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	for _, r := range existing {
		if r.IsPending() {
			return nil, errPendingExists
		}
	}

	// The storage layer rejects a second pending row, which covers a concurrent submission
	// that passed the check above.
	created, err := s.repos.UpdateRequests.Create(ctx, models.NewUserUpdateRequest(userID, changes, in.Comment))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			s.logger.Info("concurrent pending update request rejected", slog.String("user_id", userID))
			return nil, errPendingExists
		case errors.Is(err, models.ErrNotFound):
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		s.logger.Error("failed to create update request", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile update requested",
		slog.String("user_id", userID),
		slog.String("update_request_id", created.ID),
	)
	s.audit.LogUpdateRequested(ctx, userID, created.ID, created.Changes.Keys())

	return created, nil
}

var errPendingExists = fmt.Errorf("user already has a pending update request: %w", models.ErrConflict)

// ApproveProfileUpdate resolves a pending request. On approval the requested changes are
// merged onto the user and profile. The status write and the entity writes share one
// transaction, so a failure leaves the request pending and the user untouched.
func (s *ProfileUpdateService) ApproveProfileUpdate(ctx context.Context, in ApproveProfileUpdateInput) (result *ReviewResult, err error) {
	requestID := strings.TrimSpace(in.RequestID)
	reviewerID := strings.TrimSpace(in.ReviewerID)

	ctx, span := s.tracer.Start(ctx, "ProfileUpdateService.ApproveProfileUpdate",
		trace.WithAttributes(
			attribute.String("update_request.id", requestID),
			attribute.String("reviewer.id", reviewerID),
			attribute.Bool("approve", in.Approve),
		))
	defer func() {
		s.metrics.RecordReview(in.Approve, outcome(err, "ok"))
		observability.EndSpan(span, err)
	}()

	if requestID == "" {
		return nil, fmt.Errorf("request id is required: %w", models.ErrInvalidInput)
	}
	if reviewerID == "" {
		return nil, fmt.Errorf("reviewer id is required: %w", models.ErrInvalidInput)
	}
	if err := s.checkComment(in.Comment); err != nil {
		return nil, err
	}

	var previousStatus models.UserStatus
	var applied models.ProfileChanges

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		current, err := repos.UpdateRequests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("update request %s: %w", requestID, models.ErrNotFound)
			}
			return err
		}
		if !current.IsPending() {
			return errAlreadyProcessed
		}

		status := models.RequestStatusRejected
		if in.Approve {
			status = models.RequestStatusApproved
		}

		updated, err := repos.UpdateRequests.UpdateStatus(ctx, current.ID, status, reviewerID, models.OptionalString(in.Comment))
		if err != nil {
			if errors.Is(err, models.ErrInvalidState) {
				return errAlreadyProcessed
			}
			return err
		}

		if !in.Approve {
			user, err := loadUserWithProfile(ctx, repos, updated.UserID)
			if err != nil {
				return err
			}
			result = &ReviewResult{Request: updated, User: user}
			return nil
		}

		applied = updated.Changes
		if applied.Status != nil && !s.cfg.AllowStatusChange {
			s.logger.Warn("ignoring status change in approved update request",
				slog.String("update_request_id", updated.ID),
				slog.String("requested_status", string(*applied.Status)),
			)
			applied = applied.WithoutStatus()
		}

		user, err := s.applyChanges(ctx, repos, updated.UserID, reviewerID, applied, &previousStatus)
		if err != nil {
			return err
		}

		result = &ReviewResult{Request: updated, User: user}
		return nil
	})
	if err != nil {
		result = nil
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrInvalidInput):
			return nil, err
		}
		s.logger.Error("failed to review update request",
			slog.String("update_request_id", requestID),
			slog.String("reviewer_id", reviewerID),
			slog.Any("error", err),
		)
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile update reviewed",
		slog.String("update_request_id", result.Request.ID),
		slog.String("user_id", result.Request.UserID),
		slog.String("reviewer_id", reviewerID),
		slog.String("status", string(result.Request.Status)),
	)
	s.audit.LogReview(ctx, reviewerID, result.Request.UserID, result.Request.ID, in.Approve, result.Request.Changes.Keys())

	if in.Approve && applied.Status != nil && previousStatus != result.User.Status {
		s.audit.LogStatusChange(ctx, reviewerID, result.User.ID, result.Request.ID, string(previousStatus), string(result.User.Status))
	}

	return result, nil
}

var errAlreadyProcessed = fmt.Errorf("update request already processed: %w", models.ErrInvalidState)

// applyChanges merges changes onto the locked user row and its profile.
// The profile is created on first use when the changes carry profile fields.
func (s *ProfileUpdateService) applyChanges(ctx context.Context, repos Repositories, userID, reviewerID string, changes models.ProfileChanges, previousStatus *models.UserStatus) (*models.User, error) {
	user, err := repos.Users.GetByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		return nil, err
	}
	*previousStatus = user.Status

	changes.ApplyToUser(user)
	user.ApprovedByID = &reviewerID

	saved, err := repos.Users.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	profile, err := repos.Profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if profile != nil || changes.HasProfileFields() {
		if profile == nil {
			profile = &models.UserProfile{UserID: userID}
		}
		changes.ApplyToProfile(profile)

		profile, err = repos.Profiles.Save(ctx, profile)
		if err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}
	}

	saved.Profile = profile
	return saved, nil
}

func loadUserWithProfile(ctx context.Context, repos Repositories, userID string) (*models.User, error) {
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		return nil, err
	}

	profile, err := repos.Profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		user.Profile = profile
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("load profile: %w", err)
	}

	return user, nil
}

// GetUpdateRequest retrieves a single request by ID
func (s *ProfileUpdateService) GetUpdateRequest(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	req, err := s.repos.UpdateRequests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("update request %s: %w", id, models.ErrNotFound)
		}
		s.logger.Error("failed to get update request", slog.String("update_request_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return req, nil
}

// ListUserRequests returns the requests of a user, newest first.
func (s *ProfileUpdateService) ListUserRequests(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error) {
	if _, err := s.repos.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	requests, err := s.repos.UpdateRequests.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list update requests", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return requests, nil
}

// ListPendingRequests returns pending requests oldest first. Limit is clamped to the configured maximum.
func (s *ProfileUpdateService) ListPendingRequests(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error) {
	if filter.Limit <= 0 || filter.Limit > s.cfg.ListLimit {
		filter.Limit = s.cfg.ListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.UserID = strings.TrimSpace(filter.UserID)

	requests, err := s.repos.UpdateRequests.ListPending(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list pending update requests", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return requests, nil
}

func (s *ProfileUpdateService) checkComment(comment string) error {
	if s.cfg.CommentMaxLength > 0 && len([]rune(strings.TrimSpace(comment))) > s.cfg.CommentMaxLength {
		return fmt.Errorf("comment must be at most %d characters: %w", s.cfg.CommentMaxLength, models.ErrInvalidInput)
	}
	return nil
}

// outcome maps an error to a metric label.
func outcome(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrInvalidState):
		return "invalid_state"
	}
	return "error"
}
