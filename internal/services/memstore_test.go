package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BradenHooton/examhub/internal/models"
)

// memData is one consistent copy of the tables.
type memData struct {
	users    map[string]models.User
	profiles map[string]models.UserProfile
	requests map[string]models.UserUpdateRequest
}

func (d *memData) clone() *memData {
	c := &memData{
		users:    make(map[string]models.User, len(d.users)),
		profiles: make(map[string]models.UserProfile, len(d.profiles)),
		requests: make(map[string]models.UserUpdateRequest, len(d.requests)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	return c
}

// memStore is an in-memory Transactor. Transactions work on a private copy that replaces
// the committed data only when fn succeeds, and they run one at a time like row locks would force.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *memData
	seq  int
	base time.Time

	// afterPendingCheck runs after GetByUserID reads, outside the lock.
	afterPendingCheck func()
	// failProfileSave makes every profile save fail.
	failProfileSave error
}

func newMemStore() *memStore {
	return &memStore{
		data: &memData{
			users:    map[string]models.User{},
			profiles: map[string]models.UserProfile{},
			requests: map[string]models.UserUpdateRequest{},
		},
		base: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) next() (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%d", s.seq), s.base.Add(time.Duration(s.seq) * time.Second)
}

func (s *memStore) Repositories() Repositories {
	return s.repos(nil)
}

func (s *memStore) repos(tx *memData) Repositories {
	return Repositories{
		Users:          &memUsers{s: s, tx: tx},
		Profiles:       &memProfiles{s: s, tx: tx},
		UpdateRequests: &memRequests{s: s, tx: tx},
	}
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	work := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, s.repos(work)); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

// view returns the data a repository operates on. Callers hold s.mu.
func (s *memStore) view(tx *memData) *memData {
	if tx != nil {
		return tx
	}
	return s.data
}

// seedUser stores u as is, keeping its ID.
func (s *memStore) seedUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[u.ID] = *u
}

func (s *memStore) seedProfile(p *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.profiles[p.UserID] = *p
}

func (s *memStore) user(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	return u, ok
}

func (s *memStore) profile(userID string) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.profiles[userID]
	return p, ok
}

func (s *memStore) request(id string) (models.UserUpdateRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.requests[id]
	return r, ok
}

func (s *memStore) pendingCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.data.requests {
		if r.UserID == userID && r.Status == models.RequestStatusPending {
			n++
		}
	}
	return n
}

type memUsers struct {
	s  *memStore
	tx *memData
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.view(r.tx).users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.view(r.tx).users {
		if u.Email == models.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memUsers) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*models.User, 0)
	for _, u := range r.s.view(r.tx).users {
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []*models.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memUsers) Save(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	data := r.s.view(r.tx)

	u := *user
	u.Profile = nil
	u.Email = models.NormalizeEmail(u.Email)
	for id, other := range data.users {
		if id != u.ID && other.Email == u.Email {
			return nil, models.ErrConflict
		}
	}

	id, now := r.s.next()
	if u.ID == "" {
		u.ID = "user-" + id
		u.CreatedAt = now
	} else if _, ok := data.users[u.ID]; !ok {
		return nil, models.ErrNotFound
	}
	u.UpdatedAt = now
	data.users[u.ID] = u
	return &u, nil
}

type memProfiles struct {
	s  *memStore
	tx *memData
}

func (r *memProfiles) GetByUserID(_ context.Context, userID string) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.view(r.tx).profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r *memProfiles) Save(_ context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProfileSave != nil {
		return nil, r.s.failProfileSave
	}
	data := r.s.view(r.tx)
	if _, ok := data.users[profile.UserID]; !ok {
		return nil, models.ErrNotFound
	}

	p := *profile
	_, now := r.s.next()
	if existing, ok := data.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	data.profiles[p.UserID] = p
	return &p, nil
}

type memRequests struct {
	s  *memStore
	tx *memData
}

func (r *memRequests) Create(_ context.Context, req *models.UserUpdateRequest) (*models.UserUpdateRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	data := r.s.view(r.tx)

	if _, ok := data.users[req.UserID]; !ok {
		return nil, models.ErrNotFound
	}
	// Same guarantee as the partial unique index on pending rows.
	for _, other := range data.requests {
		if other.UserID == req.UserID && other.Status == models.RequestStatusPending {
			return nil, fmt.Errorf("ux_user_update_requests_one_pending: %w", models.ErrConflict)
		}
	}

	id, now := r.s.next()
	created := *req
	created.ID = "req-" + id
	created.Status = models.RequestStatusPending
	created.CreatedAt = now
	created.UpdatedAt = now
	data.requests[created.ID] = created
	return &created, nil
}

func (r *memRequests) GetByID(_ context.Context, id string) (*models.UserUpdateRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.view(r.tx).requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &req, nil
}

func (r *memRequests) GetByIDForUpdate(ctx context.Context, id string) (*models.UserUpdateRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *memRequests) GetByUserID(_ context.Context, userID string) ([]*models.UserUpdateRequest, error) {
	r.s.mu.Lock()
	out := make([]*models.UserUpdateRequest, 0)
	for _, req := range r.s.view(r.tx).requests {
		if req.UserID == userID {
			out = append(out, &req)
		}
	}
	hook := r.s.afterPendingCheck
	r.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memRequests) UpdateStatus(_ context.Context, id string, status models.RequestStatus, reviewerID string, comment *string) (*models.UserUpdateRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	data := r.s.view(r.tx)

	req, ok := data.requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.Status != models.RequestStatusPending {
		return nil, models.ErrInvalidState
	}

	_, now := r.s.next()
	req.Status = status
	req.ReviewedByID = &reviewerID
	req.ReviewedAt = &now
	if comment != nil {
		req.Comment = comment
	}
	req.UpdatedAt = now
	data.requests[id] = req
	return &req, nil
}

func (r *memRequests) ListPending(_ context.Context, filter models.PendingFilter) ([]*models.UserUpdateRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.UserUpdateRequest, 0)
	for _, req := range r.s.view(r.tx).requests {
		if req.Status == models.RequestStatusPending && (filter.UserID == "" || req.UserID == filter.UserID) {
			out = append(out, &req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return []*models.UserUpdateRequest{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return out[filter.Offset:end], nil
}
