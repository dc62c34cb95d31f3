package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/BradenHooton/examhub/internal/config"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultProfileUpdateConfig() config.ProfileUpdateConfig {
	return config.ProfileUpdateConfig{AllowStatusChange: true, CommentMaxLength: 1000, ListLimit: 50}
}

func newProfileUpdateService(store *memStore, cfg config.ProfileUpdateConfig) *ProfileUpdateService {
	return NewProfileUpdateService(store.Repositories(), store, cfg, discardLogger())
}

// seedAlice stores user 42 with a profile.
func seedAlice(store *memStore) {
	store.seedUser(&models.User{
		ID:          "42",
		Name:        "Alice",
		Email:       "alice@example.com",
		Phone:       "555-0100",
		Institution: "Colombo University",
		Role:        models.RoleStudent,
		Status:      models.UserStatusActive,
	})
	store.seedProfile(&models.UserProfile{
		UserID:    "42",
		AvatarURL: "https://cdn.example.com/alice.png",
		Bio:       "old bio",
		Address:   "1 Main St",
		City:      "Kandy",
	})
}

func submit(t *testing.T, svc *ProfileUpdateService, userID string, changes map[string]any) *models.UserUpdateRequest {
	t.Helper()
	req, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{UserID: userID, Changes: changes})
	require.NoError(t, err)
	return req
}

func TestRequestProfileUpdate_CreatesPendingRequest(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{
		UserID:  "42",
		Changes: map[string]any{"name": "Alicia", "city": "Colombo"},
		Comment: "moved cities",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, []string{"city", "name"}, req.Changes.Keys())
	require.NotNil(t, req.Comment)
	assert.Equal(t, "moved cities", *req.Comment)
	assert.Nil(t, req.ReviewedAt)

	user, _ := store.user("42")
	assert.Equal(t, "Alice", user.Name, "submission must not touch the user")
}

func TestRequestProfileUpdate_SecondPendingIsConflict(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	submit(t, svc, "42", map[string]any{"bio": "first"})

	_, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{
		UserID:  "42",
		Changes: map[string]any{"bio": "second"},
	})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, err.Error(), "already has a pending update request")
	assert.Equal(t, 1, store.pendingCount("42"))
}

func TestRequestProfileUpdate_AllowedAgainAfterReview(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	first := submit(t, svc, "42", map[string]any{"bio": "first"})
	_, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: first.ID, ReviewerID: "7"})
	require.NoError(t, err)

	second := submit(t, svc, "42", map[string]any{"bio": "second"})
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRequestProfileUpdate_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   RequestProfileUpdateInput
		wantErr error
	}{
		{name: "blank user id", input: RequestProfileUpdateInput{UserID: "  ", Changes: map[string]any{"bio": "x"}}, wantErr: models.ErrInvalidInput},
		{name: "nil changes", input: RequestProfileUpdateInput{UserID: "42"}, wantErr: models.ErrInvalidInput},
		{name: "empty changes", input: RequestProfileUpdateInput{UserID: "42", Changes: map[string]any{}}, wantErr: models.ErrInvalidInput},
		{name: "non-string value", input: RequestProfileUpdateInput{UserID: "42", Changes: map[string]any{"phone": 5550100}}, wantErr: models.ErrInvalidInput},
		{name: "bad avatar url", input: RequestProfileUpdateInput{UserID: "42", Changes: map[string]any{"avatarUrl": "not a url"}}, wantErr: models.ErrInvalidInput},
		{name: "unknown user", input: RequestProfileUpdateInput{UserID: "404", Changes: map[string]any{"bio": "x"}}, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedAlice(store)
			svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

			req, err := svc.RequestProfileUpdate(context.Background(), tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, req)
			assert.Equal(t, 0, store.pendingCount("42"))
		})
	}
}

func TestRequestProfileUpdate_CommentTooLong(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	cfg := defaultProfileUpdateConfig()
	cfg.CommentMaxLength = 5
	svc := newProfileUpdateService(store, cfg)

	_, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{
		UserID:  "42",
		Changes: map[string]any{"bio": "x"},
		Comment: "far too long",
	})

	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRequestProfileUpdate_ConcurrentDoubleSubmit(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	// Both submissions finish their pending check before either one writes.
	var checked sync.WaitGroup
	checked.Add(2)
	store.afterPendingCheck = func() {
		checked.Done()
		checked.Wait()
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{
				UserID:  "42",
				Changes: map[string]any{"bio": "concurrent"},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, 1, store.pendingCount("42"))
}

func TestRequestProfileUpdate_StatusChangeDisabled(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	cfg := defaultProfileUpdateConfig()
	cfg.AllowStatusChange = false
	svc := newProfileUpdateService(store, cfg)

	_, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{
		UserID:  "42",
		Changes: map[string]any{"status": "Suspended"},
	})

	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRequestProfileUpdate_StorageErrors(t *testing.T) {
	user := NewTestUser("42", "alice@example.com", "Alice")

	t.Run("listing fails", func(t *testing.T) {
		repos := Repositories{
			Users: &MockUserRepository{GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) { return user, nil }},
			UpdateRequests: &MockUpdateRequestRepository{
				GetByUserIDFunc: func(ctx context.Context, userID string) ([]*models.UserUpdateRequest, error) {
					return nil, errors.New("connection reset")
				},
			},
		}
		svc := NewProfileUpdateService(repos, &MockTransactor{Repos: repos}, defaultProfileUpdateConfig(), discardLogger())

		_, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{UserID: "42", Changes: map[string]any{"bio": "x"}})

		assert.Equal(t, models.ErrInternalServer, err)
	})

	t.Run("unique violation on insert", func(t *testing.T) {
		repos := Repositories{
			Users: &MockUserRepository{GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) { return user, nil }},
			UpdateRequests: &MockUpdateRequestRepository{
				CreateFunc: func(ctx context.Context, req *models.UserUpdateRequest) (*models.UserUpdateRequest, error) {
					return nil, models.ErrConflict
				},
			},
		}
		svc := NewProfileUpdateService(repos, &MockTransactor{Repos: repos}, defaultProfileUpdateConfig(), discardLogger())

		_, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{UserID: "42", Changes: map[string]any{"bio": "x"}})

		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestApproveProfileUpdate_EndToEnd(t *testing.T) {
	store := newMemStore()
	store.seedUser(&models.User{ID: "7", Name: "Reviewer", Email: "reviewer@example.com", Role: models.RoleAdmin, Status: models.UserStatusActive})
	store.seedUser(&models.User{ID: "42", Name: "Alice", Email: "alice@example.com", Role: models.RoleStudent, Status: models.UserStatusActive})
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"name": "Alicia", "city": "Colombo"})
	assert.Equal(t, models.RequestStatusPending, req.Status)

	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{
		RequestID:  req.ID,
		ReviewerID: "7",
		Approve:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, result.Request.Status)
	require.NotNil(t, result.Request.ReviewedByID)
	assert.Equal(t, "7", *result.Request.ReviewedByID)
	assert.NotNil(t, result.Request.ReviewedAt)

	assert.Equal(t, "Alicia", result.User.Name)
	assert.Equal(t, models.UserStatusActive, result.User.Status)
	require.NotNil(t, result.User.ApprovedByID)
	assert.Equal(t, "7", *result.User.ApprovedByID)
	require.NotNil(t, result.User.Profile)
	assert.Equal(t, "Colombo", result.User.Profile.City)

	stored, _ := store.user("42")
	assert.Equal(t, "Alicia", stored.Name)
	profile, ok := store.profile("42")
	require.True(t, ok, "profile is created on first approved profile change")
	assert.Equal(t, "Colombo", profile.City)
}

func TestApproveProfileUpdate_TerminalStateIsFinal(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"bio": "new bio"})
	_, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})
	require.NoError(t, err)

	for _, approve := range []bool{false, true} {
		result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "8", Approve: approve})

		assert.ErrorIs(t, err, models.ErrInvalidState)
		assert.Contains(t, err.Error(), "already processed")
		assert.Nil(t, result)
	}

	stored, _ := store.request(req.ID)
	assert.Equal(t, models.RequestStatusApproved, stored.Status)
	assert.Equal(t, "7", *stored.ReviewedByID)
}

func TestApproveProfileUpdate_RejectionDoesNotMutate(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	userBefore, _ := store.user("42")
	profileBefore, _ := store.profile("42")

	req := submit(t, svc, "42", map[string]any{"name": "Mallory", "bio": "hijacked", "status": "suspended"})
	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{
		RequestID:  req.ID,
		ReviewerID: "7",
		Approve:    false,
		Comment:    "not verified",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, result.Request.Status)
	assert.Equal(t, "7", *result.Request.ReviewedByID)
	assert.Equal(t, "not verified", *result.Request.Comment)
	assert.Equal(t, "Alice", result.User.Name)
	require.NotNil(t, result.User.Profile)
	assert.Equal(t, "old bio", result.User.Profile.Bio)

	userAfter, _ := store.user("42")
	profileAfter, _ := store.profile("42")
	assert.Equal(t, userBefore, userAfter)
	assert.Equal(t, profileBefore, profileAfter)
}

func TestApproveProfileUpdate_PartialMerge(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"bio": "new bio"})
	_, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})
	require.NoError(t, err)

	user, _ := store.user("42")
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "555-0100", user.Phone)
	assert.Equal(t, "Colombo University", user.Institution)
	assert.Equal(t, models.UserStatusActive, user.Status)

	profile, _ := store.profile("42")
	assert.Equal(t, "new bio", profile.Bio)
	assert.Equal(t, "https://cdn.example.com/alice.png", profile.AvatarURL)
	assert.Equal(t, "1 Main St", profile.Address)
	assert.Equal(t, "Kandy", profile.City)
}

func TestApproveProfileUpdate_UserFieldsOnlyLeaveMissingProfileAbsent(t *testing.T) {
	store := newMemStore()
	store.seedUser(NewTestUser("42", "alice@example.com", "Alice"))
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"phone": "555-0199"})
	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})

	require.NoError(t, err)
	assert.Equal(t, "555-0199", result.User.Phone)
	assert.Nil(t, result.User.Profile)
	_, ok := store.profile("42")
	assert.False(t, ok)
}

func TestApproveProfileUpdate_UnknownFieldsCannotChangeRole(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"role": "Super Admin", "email": "root@example.com", "bio": "promote me"})
	assert.Equal(t, []string{"bio"}, req.Changes.Keys())

	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})

	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, result.User.Role)
	assert.Equal(t, "alice@example.com", result.User.Email)
	user, _ := store.user("42")
	assert.Equal(t, models.RoleStudent, user.Role)
}

func TestApproveProfileUpdate_OnlyUnknownFieldsIsNoOp(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"role": "Super Admin"})
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Empty(t, req.Changes.Keys())

	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, result.Request.Status)
	assert.Equal(t, models.RoleStudent, result.User.Role)
	assert.Equal(t, "Alice", result.User.Name)
	require.NotNil(t, result.User.Profile)
	assert.Equal(t, "old bio", result.User.Profile.Bio)
}

func TestApproveProfileUpdate_AppliesStatusChange(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"status": "Suspended"})
	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})

	require.NoError(t, err)
	assert.Equal(t, models.UserStatusSuspended, result.User.Status)
}

func TestApproveProfileUpdate_IgnoresStoredStatusWhenDisabled(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	submitted := submit(t, newProfileUpdateService(store, defaultProfileUpdateConfig()), "42", map[string]any{"status": "suspended", "bio": "x"})

	cfg := defaultProfileUpdateConfig()
	cfg.AllowStatusChange = false
	svc := newProfileUpdateService(store, cfg)

	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: submitted.ID, ReviewerID: "7", Approve: true})

	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, result.User.Status)
	assert.Equal(t, "x", result.User.Profile.Bio)
}

func TestApproveProfileUpdate_RollsBackWhenProfileSaveFails(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	req := submit(t, svc, "42", map[string]any{"name": "Alicia", "city": "Colombo"})
	store.failProfileSave = errors.New("disk full")

	result, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})

	assert.Equal(t, models.ErrInternalServer, err)
	assert.Nil(t, result)

	stored, _ := store.request(req.ID)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedByID)
	user, _ := store.user("42")
	assert.Equal(t, "Alice", user.Name)
	assert.Nil(t, user.ApprovedByID)

	store.failProfileSave = nil
	_, err = svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})
	assert.NoError(t, err, "request is still reviewable after a rollback")
}

func TestApproveProfileUpdate_ConcurrentReviews(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())
	req := submit(t, svc, "42", map[string]any{"bio": "new bio"})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, approve := range []bool{true, false} {
		wg.Add(1)
		go func(i int, approve bool) {
			defer wg.Done()
			_, errs[i] = svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: approve})
		}(i, approve)
	}
	wg.Wait()

	var ok, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrInvalidState):
			invalid++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
}

func TestApproveProfileUpdate_InvalidInput(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	_, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{ReviewerID: "7"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: "req-1"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: "missing", ReviewerID: "7", Approve: true})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestApproveProfileUpdate_RecordsMetrics(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig()).WithMetrics(metrics)

	req := submit(t, svc, "42", map[string]any{"bio": "x"})
	_, err := svc.RequestProfileUpdate(context.Background(), RequestProfileUpdateInput{UserID: "42", Changes: map[string]any{"bio": "y"}})
	require.Error(t, err)

	_, err = svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})
	require.NoError(t, err)
	_, err = svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: req.ID, ReviewerID: "7", Approve: true})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpdateRequestsTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpdateRequestsTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpdateReviewsTotal.WithLabelValues("approved", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpdateReviewsTotal.WithLabelValues("approved", "invalid_state")))
}

func TestProfileUpdateService_ListAndGet(t *testing.T) {
	store := newMemStore()
	seedAlice(store)
	store.seedUser(NewTestUser("43", "bob@example.com", "Bob"))
	svc := newProfileUpdateService(store, defaultProfileUpdateConfig())

	first := submit(t, svc, "42", map[string]any{"bio": "a"})
	_, err := svc.ApproveProfileUpdate(context.Background(), ApproveProfileUpdateInput{RequestID: first.ID, ReviewerID: "7", Approve: false})
	require.NoError(t, err)
	second := submit(t, svc, "42", map[string]any{"bio": "b"})
	bobs := submit(t, svc, "43", map[string]any{"city": "Galle"})

	got, err := svc.GetUpdateRequest(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = svc.GetUpdateRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	history, err := svc.ListUserRequests(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest first")
	assert.Equal(t, first.ID, history[1].ID)

	_, err = svc.ListUserRequests(context.Background(), "404")
	assert.ErrorIs(t, err, models.ErrNotFound)

	pending, err := svc.ListPendingRequests(context.Background(), models.PendingFilter{})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID, "oldest first")
	assert.Equal(t, bobs.ID, pending[1].ID)

	pending, err = svc.ListPendingRequests(context.Background(), models.PendingFilter{UserID: "43"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bobs.ID, pending[0].ID)
}

func TestListPendingRequests_ClampsLimit(t *testing.T) {
	var got models.PendingFilter
	repos := Repositories{
		UpdateRequests: &MockUpdateRequestRepository{
			ListPendingFunc: func(ctx context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error) {
				got = filter
				return []*models.UserUpdateRequest{}, nil
			},
		},
	}
	cfg := defaultProfileUpdateConfig()
	cfg.ListLimit = 20
	svc := NewProfileUpdateService(repos, &MockTransactor{Repos: repos}, cfg, discardLogger())

	_, err := svc.ListPendingRequests(context.Background(), models.PendingFilter{Limit: 500, Offset: -3, UserID: " 42 "})

	require.NoError(t, err)
	assert.Equal(t, models.PendingFilter{UserID: "42", Limit: 20, Offset: 0}, got)
}
