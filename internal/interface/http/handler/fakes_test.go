package handler_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

type memComplaints struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entity.Complaint
}

func newMemComplaints() *memComplaints {
	return &memComplaints{byID: make(map[uuid.UUID]*entity.Complaint)}
}

func clone(c *entity.Complaint) *entity.Complaint {
	cp := *c
	return &cp
}

func (r *memComplaints) Create(_ context.Context, c *entity.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = clone(c)
	return nil
}

func (r *memComplaints) FindByID(_ context.Context, id uuid.UUID) (*entity.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrComplaintNotFound
	}
	return clone(c), nil
}

func (r *memComplaints) ListByCitizen(_ context.Context, citizenID uuid.UUID) ([]*entity.Complaint, error) {
	return r.filter(func(c *entity.Complaint) bool { return c.CitizenID == citizenID }), nil
}

func (r *memComplaints) List(_ context.Context, f repository.ComplaintFilter) ([]*entity.Complaint, error) {
	return r.filter(func(c *entity.Complaint) bool {
		if f.Status != nil && c.Status != *f.Status {
			return false
		}
		if f.Category != nil && c.Category != *f.Category {
			return false
		}
		if f.Search != "" {
			hay := c.ID.String()
			if c.LocationAddress != nil {
				hay += " " + *c.LocationAddress
			}
			if c.Description != nil {
				hay += " " + *c.Description
			}
			return strings.Contains(strings.ToLower(hay), strings.ToLower(f.Search))
		}
		return true
	}), nil
}

func (r *memComplaints) filter(keep func(*entity.Complaint) bool) []*entity.Complaint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Complaint, 0)
	for _, c := range r.byID {
		if keep(c) {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memComplaints) UpdateStatus(_ context.Context, c *entity.Complaint, expected valueobject.ComplaintStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[c.ID]
	if !ok || stored.Status != expected {
		return apperror.ErrInvalidTransition
	}
	stored.Status, stored.ResolvedAt, stored.UpdatedAt = c.Status, c.ResolvedAt, c.UpdatedAt
	return nil
}

func (r *memComplaints) SetUrgency(_ context.Context, id uuid.UUID, level valueobject.UrgencyLevel, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return apperror.ErrComplaintNotFound
	}
	if stored.Urgency != nil {
		return apperror.ErrUrgencyAlreadySet
	}
	stored.Urgency, stored.UpdatedAt = &level, at
	return nil
}

func (r *memComplaints) UpdateAdminNotes(_ context.Context, id uuid.UUID, notes *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return apperror.ErrComplaintNotFound
	}
	stored.AdminNotes, stored.UpdatedAt = notes, at
	return nil
}

type memRewards struct {
	mu      sync.Mutex
	entries []*entity.RewardEntry
	points  map[uuid.UUID]int
}

func newMemRewards() *memRewards {
	return &memRewards{points: make(map[uuid.UUID]int)}
}

func (r *memRewards) Append(_ context.Context, e *entity.RewardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memRewards) FindByID(_ context.Context, id uuid.UUID) (*entity.RewardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperror.ErrRewardNotFound
}

func (r *memRewards) ListByCitizen(_ context.Context, citizenID uuid.UUID) ([]*entity.RewardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.RewardEntry, 0)
	for _, e := range r.entries {
		if e.CitizenID == citizenID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRewards) MarkRedeemed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			if e.Redeemed {
				return apperror.ErrAlreadyRedeemed
			}
			e.Redeemed = true
			return nil
		}
	}
	return apperror.ErrRewardNotFound
}

func (r *memRewards) IncrementPoints(_ context.Context, citizenID uuid.UUID, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[citizenID] += points
	return nil
}

func (r *memRewards) GetPoints(_ context.Context, citizenID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.points[citizenID], nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memPhotos struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (p *memPhotos) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if p.fail {
		return "", errors.New("bucket unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return "https://cdn.example/" + key, nil
}
