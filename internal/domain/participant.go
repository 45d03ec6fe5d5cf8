// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Role discriminates what a participant may do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleStudent:
		return true
	}
	return false
}

// Participant is a user referenced by a review session. The scheduling core
// only ever reads participants.
type Participant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParticipantDirectory is the read-only port onto user management.
// FindByID returns (nil, nil) when no participant has the given id.
type ParticipantDirectory interface {
	FindByID(ctx context.Context, id int64) (*Participant, error)
	ListByRole(ctx context.Context, role Role) ([]Participant, error)
}

// ParticipantRegistry is the write port used only for seeding demo data.
// AddParticipant is a no-op returning the existing row if the email is taken.
type ParticipantRegistry interface {
	AddParticipant(ctx context.Context, p Participant) (*Participant, error)
}
