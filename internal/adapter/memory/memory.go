// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"mentorship/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	participants []domain.Participant
	sessions     map[int64]domain.Session

	// per-participant scheduling locks
	locks map[int64]*sync.Mutex

	participantIDCounter int64
	sessionIDCounter     int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[int64]domain.Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Ensure interfaces are met.
var _ domain.ParticipantDirectory = (*DB)(nil)
var _ domain.ParticipantRegistry = (*DB)(nil)
var _ domain.SessionStore = (*SessionRepo)(nil)

// --- ParticipantDirectory ---

// FindByID retrieves a participant by ID.
func (db *DB) FindByID(ctx context.Context, id int64) (*domain.Participant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range db.participants {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

// ListByRole lists participants with the given role ordered by ID.
func (db *DB) ListByRole(ctx context.Context, role domain.Role) ([]domain.Participant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Participant
	for _, p := range db.participants {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

// AddParticipant stores p unless its email is already registered.
func (db *DB) AddParticipant(ctx context.Context, p domain.Participant) (*domain.Participant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.participants {
		if existing.Email == p.Email {
			return &existing, nil
		}
	}

	db.participantIDCounter++
	p.ID = db.participantIDCounter
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	db.participants = append(db.participants, p)
	return &p, nil
}

// --- SessionStore ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Insert stores a new session and assigns its ID.
func (r *SessionRepo) Insert(ctx context.Context, s domain.Session) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessionIDCounter++
	s.ID = r.db.sessionIDCounter
	s.StartTime = s.StartTime.UTC()
	r.db.sessions[s.ID] = s
	return &s, nil
}

// FindByID retrieves a session by ID.
func (r *SessionRepo) FindByID(ctx context.Context, id int64) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

// FindOverlapping lists sessions of participantID overlapping slot whose
// status is not in exclude.
func (r *SessionRepo) FindOverlapping(ctx context.Context, participantID int64, slot domain.Slot, exclude []domain.Status) ([]domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Session
	for _, s := range r.db.sessions {
		if !s.HasParticipant(participantID) || slices.Contains(exclude, s.Status) {
			continue
		}
		if s.Slot().Overlaps(slot) {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out, nil
}

// Update replaces the stored session if its status still equals from.
func (r *SessionRepo) Update(ctx context.Context, s domain.Session, from domain.Status) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.sessions[s.ID]
	if !ok || current.Status != from {
		return nil, nil
	}
	// identity and schedule are immutable
	s.MentorID = current.MentorID
	s.StudentID = current.StudentID
	s.StartTime = current.StartTime
	s.CreatedAt = current.CreatedAt
	r.db.sessions[s.ID] = s
	return &s, nil
}

// List returns sessions matching f ordered by start time then ID.
func (r *SessionRepo) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]domain.Session, 0, len(r.db.sessions))
	for _, s := range r.db.sessions {
		if f.MentorID != 0 && s.MentorID != f.MentorID {
			continue
		}
		if f.StudentID != 0 && s.StudentID != f.StudentID {
			continue
		}
		if f.ParticipantID != 0 && !s.HasParticipant(f.ParticipantID) {
			continue
		}
		out = append(out, s)
	}
	sortSessions(out)
	return out, nil
}

// WithParticipantLock runs fn while holding the scheduling lock of every id.
// Locks are taken in ascending id order so two callers cannot deadlock.
func (r *SessionRepo) WithParticipantLock(ctx context.Context, participantIDs []int64, fn func(ctx context.Context, tx domain.SessionStore) error) error {
	ids := slices.Clone(participantIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	r.db.mu.Lock()
	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		l, ok := r.db.locks[id]
		if !ok {
			l = &sync.Mutex{}
			r.db.locks[id] = l
		}
		held = append(held, l)
	}
	r.db.mu.Unlock()

	for _, l := range held {
		l.Lock()
	}
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, r)
}

func sortSessions(s []domain.Session) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].StartTime.Equal(s[j].StartTime) {
			return s[i].StartTime.Before(s[j].StartTime)
		}
		return s[i].ID < s[j].ID
	})
}
