package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mentorship/internal/domain"
)

const participantColumns = "id, name, email, role, created_at"

func scanParticipant(row interface{ Scan(...any) error }) (*domain.Participant, error) {
	var p domain.Participant
	var role string
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &role, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}

// FindByID retrieves a participant by ID.
func (d *DB) FindByID(ctx context.Context, id int64) (*domain.Participant, error) {
	p, err := scanParticipant(d.sql.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListByRole lists participants with the given role ordered by ID.
func (d *DB) ListByRole(ctx context.Context, role domain.Role) ([]domain.Participant, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE role = $1 ORDER BY id", string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// AddParticipant inserts p, or returns the existing row with the same email.
func (d *DB) AddParticipant(ctx context.Context, p domain.Participant) (*domain.Participant, error) {
	created, err := scanParticipant(d.sql.QueryRowContext(ctx,
		"INSERT INTO participants (name, email, role, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (email) DO NOTHING RETURNING "+participantColumns,
		p.Name, p.Email, string(p.Role), time.Now().UTC(),
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return scanParticipant(d.sql.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE email = $1", p.Email))
}
