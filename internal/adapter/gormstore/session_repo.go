package gormstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"mentorship/internal/domain"
)

// SessionRepo implements session persistence.
type SessionRepo struct {
	db   *DB
	gorm *gorm.DB
	tx   bool
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db, gorm: db.gorm}
}

var _ domain.SessionStore = (*SessionRepo)(nil)

// Insert stores a new session and assigns its ID.
func (r *SessionRepo) Insert(ctx context.Context, s domain.Session) (*domain.Session, error) {
	row := reviewRowOf(s)
	if err := r.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	out, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID retrieves a session by ID.
func (r *SessionRepo) FindByID(ctx context.Context, id int64) (*domain.Session, error) {
	var row reviewRow
	err := r.gorm.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOverlapping lists sessions of participantID overlapping slot whose
// status is not in exclude.
func (r *SessionRepo) FindOverlapping(ctx context.Context, participantID int64, slot domain.Slot, exclude []domain.Status) ([]domain.Session, error) {
	q := r.gorm.WithContext(ctx).
		Where("(mentor_id = ? OR student_id = ?)", participantID, participantID).
		Where("start_time < ? AND end_time > ?", slot.End.UTC(), slot.Start.UTC())
	if len(exclude) > 0 {
		statuses := make([]string, len(exclude))
		for i, st := range exclude {
			statuses[i] = string(st)
		}
		q = q.Where("status NOT IN ?", statuses)
	}

	var rows []reviewRow
	if err := q.Order("start_time ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(rows)
}

// Update writes the mutable fields of s if the stored status is still from.
// A stale update returns (nil, nil).
func (r *SessionRepo) Update(ctx context.Context, s domain.Session, from domain.Status) (*domain.Session, error) {
	res := r.gorm.WithContext(ctx).Model(&reviewRow{}).
		Where("id = ? AND status = ?", s.ID, string(from)).
		Updates(map[string]any{
			"status":     string(s.Status),
			"grade":      s.Grade,
			"comment":    s.Comment,
			"updated_at": s.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, s.ID)
}

// List returns sessions matching f ordered by start time then ID.
func (r *SessionRepo) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	q := r.gorm.WithContext(ctx)
	if f.MentorID != 0 {
		q = q.Where("mentor_id = ?", f.MentorID)
	}
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.ParticipantID != 0 {
		q = q.Where("(mentor_id = ? OR student_id = ?)", f.ParticipantID, f.ParticipantID)
	}

	var rows []reviewRow
	if err := q.Order("start_time ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(rows)
}

// WithParticipantLock runs fn inside a transaction. On PostgreSQL an
// advisory lock is taken per participant in ascending order; SQLite runs on a
// single connection so transactions are already serialized.
func (r *SessionRepo) WithParticipantLock(ctx context.Context, participantIDs []int64, fn func(ctx context.Context, tx domain.SessionStore) error) error {
	ids := slices.Clone(participantIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if r.tx {
		if err := r.lock(ctx, r.gorm, ids); err != nil {
			return err
		}
		return fn(ctx, r)
	}

	return r.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lock(ctx, tx, ids); err != nil {
			return err
		}
		return fn(ctx, &SessionRepo{db: r.db, gorm: tx, tx: true})
	})
}

func (r *SessionRepo) lock(ctx context.Context, g *gorm.DB, ids []int64) error {
	if r.db.dialect != DialectPostgres {
		return ctx.Err()
	}
	for _, id := range ids {
		if err := g.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", id).Error; err != nil {
			return fmt.Errorf("lock participant %d: %w", id, err)
		}
	}
	return nil
}
