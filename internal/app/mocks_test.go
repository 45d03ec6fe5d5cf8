package app_test

import (
	"context"
	"sync"
	"time"

	"mentorship/internal/domain"
)

type mockDirectory struct {
	findFn func(ctx context.Context, id int64) (*domain.Participant, error)
	listFn func(ctx context.Context, role domain.Role) ([]domain.Participant, error)
}

func (m *mockDirectory) FindByID(ctx context.Context, id int64) (*domain.Participant, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return nil, nil
}

func (m *mockDirectory) ListByRole(ctx context.Context, role domain.Role) ([]domain.Participant, error) {
	if m.listFn != nil {
		return m.listFn(ctx, role)
	}
	return nil, nil
}

// directoryOf answers lookups from a fixed id -> role table.
func directoryOf(roles map[int64]domain.Role) *mockDirectory {
	return &mockDirectory{
		findFn: func(_ context.Context, id int64) (*domain.Participant, error) {
			r, ok := roles[id]
			if !ok {
				return nil, nil
			}
			return &domain.Participant{ID: id, Role: r}, nil
		},
	}
}

type mockSessionStore struct {
	insertFn  func(ctx context.Context, s domain.Session) (*domain.Session, error)
	findFn    func(ctx context.Context, id int64) (*domain.Session, error)
	overlapFn func(ctx context.Context, participantID int64, slot domain.Slot, exclude []domain.Status) ([]domain.Session, error)
	updateFn  func(ctx context.Context, s domain.Session, from domain.Status) (*domain.Session, error)
	listFn    func(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error)
}

func (m *mockSessionStore) Insert(ctx context.Context, s domain.Session) (*domain.Session, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, s)
	}
	s.ID = 1
	return &s, nil
}

func (m *mockSessionStore) FindByID(ctx context.Context, id int64) (*domain.Session, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionStore) FindOverlapping(ctx context.Context, participantID int64, slot domain.Slot, exclude []domain.Status) ([]domain.Session, error) {
	if m.overlapFn != nil {
		return m.overlapFn(ctx, participantID, slot, exclude)
	}
	return nil, nil
}

func (m *mockSessionStore) Update(ctx context.Context, s domain.Session, from domain.Status) (*domain.Session, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, s, from)
	}
	return &s, nil
}

func (m *mockSessionStore) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}

func (m *mockSessionStore) WithParticipantLock(ctx context.Context, _ []int64, fn func(ctx context.Context, tx domain.SessionStore) error) error {
	return fn(ctx, m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
