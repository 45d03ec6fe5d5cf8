package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"

	"mentorship/internal/domain"
)

const sessionColumns = "id, mentor_id, student_id, start_time, status, grade, comment, created_at, updated_at"

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
	q  querier
	tx bool
}

// NewSessionRepo wraps a DB as a SessionStore.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db, q: db.sql}
}

var _ domain.SessionStore = (*SessionRepo)(nil)
var _ domain.ParticipantDirectory = (*DB)(nil)
var _ domain.ParticipantRegistry = (*DB)(nil)

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var (
		s       domain.Session
		status  string
		grade   sql.NullInt64
		comment sql.NullString
	)
	if err := row.Scan(&s.ID, &s.MentorID, &s.StudentID, &s.StartTime, &status, &grade, &comment, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	s.Status = st
	s.StartTime = s.StartTime.UTC()
	if grade.Valid {
		g := int(grade.Int64)
		s.Grade = &g
	}
	if comment.Valid {
		s.Comment = &comment.String
	}
	return &s, nil
}

func nullGrade(g *int) sql.NullInt64 {
	if g == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*g), Valid: true}
}

func nullComment(c *string) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *c, Valid: true}
}

// Insert stores a new session. end_time is always derived from start_time.
func (r *SessionRepo) Insert(ctx context.Context, s domain.Session) (*domain.Session, error) {
	return scanSession(r.q.QueryRowContext(ctx,
		`INSERT INTO reviews (mentor_id, student_id, start_time, end_time, status, grade, comment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+sessionColumns,
		s.MentorID, s.StudentID, s.StartTime.UTC(), s.EndTime().UTC(), string(s.Status),
		nullGrade(s.Grade), nullComment(s.Comment), s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	))
}

// FindByID retrieves a session by ID.
func (r *SessionRepo) FindByID(ctx context.Context, id int64) (*domain.Session, error) {
	s, err := scanSession(r.q.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM reviews WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// FindOverlapping lists sessions of participantID whose [start, end) overlaps
// slot and whose status is not in exclude.
func (r *SessionRepo) FindOverlapping(ctx context.Context, participantID int64, slot domain.Slot, exclude []domain.Status) ([]domain.Session, error) {
	excluded := make([]string, len(exclude))
	for i, st := range exclude {
		excluded[i] = string(st)
	}
	return r.query(ctx,
		`SELECT `+sessionColumns+` FROM reviews
		 WHERE (mentor_id = $1 OR student_id = $1)
		   AND start_time < $3 AND end_time > $2
		   AND NOT (status = ANY($4))
		 ORDER BY start_time, id`,
		participantID, slot.Start.UTC(), slot.End.UTC(), pq.Array(excluded),
	)
}

// Update writes the mutable fields of s if the stored status is still from.
func (r *SessionRepo) Update(ctx context.Context, s domain.Session, from domain.Status) (*domain.Session, error) {
	updated, err := scanSession(r.q.QueryRowContext(ctx,
		`UPDATE reviews SET status = $1, grade = $2, comment = $3, updated_at = $4
		 WHERE id = $5 AND status = $6 RETURNING `+sessionColumns,
		string(s.Status), nullGrade(s.Grade), nullComment(s.Comment), s.UpdatedAt.UTC(), s.ID, string(from),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return updated, err
}

// List returns sessions matching f ordered by start time then ID.
func (r *SessionRepo) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.MentorID != 0 {
		add("mentor_id = $%d", f.MentorID)
	}
	if f.StudentID != 0 {
		add("student_id = $%d", f.StudentID)
	}
	if f.ParticipantID != 0 {
		args = append(args, f.ParticipantID)
		n := len(args)
		where = append(where, fmt.Sprintf("(mentor_id = $%d OR student_id = $%d)", n, n))
	}

	q := "SELECT " + sessionColumns + " FROM reviews"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_time, id"
	return r.query(ctx, q, args...)
}

func (r *SessionRepo) query(ctx context.Context, q string, args ...any) ([]domain.Session, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// WithParticipantLock runs fn in a transaction holding a transaction-scoped
// advisory lock per participant, taken in ascending order.
func (r *SessionRepo) WithParticipantLock(ctx context.Context, participantIDs []int64, fn func(ctx context.Context, tx domain.SessionStore) error) error {
	ids := slices.Clone(participantIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if r.tx {
		if err := lockParticipants(ctx, r.q, ids); err != nil {
			return err
		}
		return fn(ctx, r)
	}

	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockParticipants(ctx, tx, ids); err != nil {
		return err
	}
	if err := fn(ctx, &SessionRepo{db: r.db, q: tx, tx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func lockParticipants(ctx context.Context, q querier, ids []int64) error {
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", id); err != nil {
			return fmt.Errorf("lock participant %d: %w", id, err)
		}
	}
	return nil
}
