package complaint_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/domain/valueobject"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// store: общее in-memory состояние жалоб и журнала наград с откатом транзакций.
type store struct {
	mu         sync.Mutex
	complaints map[uuid.UUID]entity.Complaint
	rewards    map[uuid.UUID]entity.RewardEntry
	points     map[uuid.UUID]int
	createErr  error
}

func newStore() *store {
	return &store{
		complaints: make(map[uuid.UUID]entity.Complaint),
		rewards:    make(map[uuid.UUID]entity.RewardEntry),
		points:     make(map[uuid.UUID]int),
	}
}

type snapshot struct {
	complaints map[uuid.UUID]entity.Complaint
	rewards    map[uuid.UUID]entity.RewardEntry
	points     map[uuid.UUID]int
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		complaints: make(map[uuid.UUID]entity.Complaint, len(s.complaints)),
		rewards:    make(map[uuid.UUID]entity.RewardEntry, len(s.rewards)),
		points:     make(map[uuid.UUID]int, len(s.points)),
	}
	for k, v := range s.complaints {
		snap.complaints[k] = v
	}
	for k, v := range s.rewards {
		snap.rewards[k] = v
	}
	for k, v := range s.points {
		snap.points[k] = v
	}
	return snap
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints = snap.complaints
	s.rewards = snap.rewards
	s.points = snap.points
}

func (s *store) put(c *entity.Complaint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints[c.ID] = *c
}

func (s *store) get(id uuid.UUID) entity.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complaints[id]
}

func (s *store) rewardEntries() []entity.RewardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.RewardEntry, 0, len(s.rewards))
	for _, e := range s.rewards {
		out = append(out, e)
	}
	return out
}

func (s *store) balance(citizenID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[citizenID]
}

type txKey struct{}

// storeTx откатывает состояние store, если fn вернула ошибку. Вложенные
// вызовы присоединяются к внешней транзакции.
type storeTx struct {
	store *store
	txMu  sync.Mutex
}

func (t *storeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.txMu.Lock()
	defer t.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type complaintRepo struct{ *store }

func (r complaintRepo) Create(ctx context.Context, c *entity.Complaint) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(c)
	return nil
}

func (r complaintRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return nil, apperror.ErrComplaintNotFound
	}
	return &c, nil
}

func (r complaintRepo) ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.Complaint, error) {
	all, _ := r.List(ctx, repository.ComplaintFilter{})
	var out []*entity.Complaint
	for _, c := range all {
		if c.CitizenID == citizenID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r complaintRepo) List(ctx context.Context, filter repository.ComplaintFilter) ([]*entity.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Complaint
	for _, c := range r.complaints {
		c := c
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && c.Category != *filter.Category {
			continue
		}
		if filter.Search != "" && !matches(&c, filter.Search) {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matches(c *entity.Complaint, search string) bool {
	q := strings.ToLower(search)
	if c.LocationAddress != nil && strings.Contains(strings.ToLower(*c.LocationAddress), q) {
		return true
	}
	if c.Description != nil && strings.Contains(strings.ToLower(*c.Description), q) {
		return true
	}
	return strings.Contains(c.ID.String(), q)
}

func (r complaintRepo) UpdateStatus(ctx context.Context, c *entity.Complaint, expected valueobject.ComplaintStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.complaints[c.ID]
	if !ok {
		return apperror.ErrComplaintNotFound
	}
	if stored.Status != expected {
		return apperror.ErrInvalidTransition
	}
	stored.Status = c.Status
	stored.UpdatedAt = c.UpdatedAt
	stored.ResolvedAt = c.ResolvedAt
	r.complaints[c.ID] = stored
	return nil
}

func (r complaintRepo) SetUrgency(ctx context.Context, id uuid.UUID, level valueobject.UrgencyLevel, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.complaints[id]
	if !ok {
		return apperror.ErrComplaintNotFound
	}
	if stored.Urgency != nil {
		return apperror.ErrUrgencyAlreadySet
	}
	stored.Urgency = &level
	stored.UpdatedAt = at
	r.complaints[id] = stored
	return nil
}

func (r complaintRepo) UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.complaints[id]
	if !ok {
		return apperror.ErrComplaintNotFound
	}
	stored.AdminNotes = notes
	stored.UpdatedAt = at
	r.complaints[id] = stored
	return nil
}

type rewardRepo struct{ *store }

func (r rewardRepo) Append(ctx context.Context, e *entity.RewardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rewards {
		if existing.RedeemCode == e.RedeemCode {
			return errors.New("duplicate redeem code")
		}
		if e.ComplaintID != nil && existing.ComplaintID != nil && *existing.ComplaintID == *e.ComplaintID {
			return errors.New("duplicate resolution reward")
		}
	}
	r.rewards[e.ID] = *e
	return nil
}

func (r rewardRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.RewardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rewards[id]
	if !ok {
		return nil, apperror.ErrRewardNotFound
	}
	return &e, nil
}

func (r rewardRepo) ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.RewardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RewardEntry
	for _, e := range r.rewards {
		e := e
		if e.CitizenID == citizenID {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r rewardRepo) MarkRedeemed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rewards[id]
	if !ok {
		return apperror.ErrRewardNotFound
	}
	if e.Redeemed {
		return apperror.ErrAlreadyRedeemed
	}
	e.Redeemed = true
	r.rewards[id] = e
	return nil
}

type balanceRepo struct{ *store }

func (r balanceRepo) IncrementPoints(ctx context.Context, citizenID uuid.UUID, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[citizenID] += points
	return nil
}

func (r balanceRepo) GetPoints(ctx context.Context, citizenID uuid.UUID) (int, error) {
	return r.balance(citizenID), nil
}

type photoStorage struct {
	mu           sync.Mutex
	err          error
	keys         []string
	contentTypes []string
}

func (p *photoStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.contentTypes = append(p.contentTypes, contentType)
	return "https://media.example.org/complaint-photos/" + key, nil
}

type publishedEvent struct {
	userID uuid.UUID
	event  string
	data   any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *eventRecorder) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{userID: userID, event: event, data: data})
	return nil
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.event)
	}
	return out
}

type mockRewardIssuer struct {
	mock.Mock
}

func (m *mockRewardIssuer) AwardForResolution(ctx context.Context, complaintID, citizenID uuid.UUID) (*entity.RewardEntry, error) {
	args := m.Called(ctx, complaintID, citizenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RewardEntry), args.Error(1)
}
