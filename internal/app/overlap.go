package app

import (
	"context"

	"mentorship/internal/domain"
)

// Cancelled sessions never block a slot.
var excludedFromConflicts = []domain.Status{domain.StatusCancelled}

// OverlapDetector answers whether a participant is already booked during a
// slot. Creation and availability both go through it so they cannot disagree.
type OverlapDetector struct {
	sessions domain.SessionStore
}

// NewOverlapDetector creates an OverlapDetector reading from sessions.
func NewOverlapDetector(sessions domain.SessionStore) *OverlapDetector {
	return &OverlapDetector{sessions: sessions}
}

// Conflicts returns the non-cancelled sessions of participantID whose slot
// overlaps slot. The store's result is re-checked against Slot.Overlaps.
func (d *OverlapDetector) Conflicts(ctx context.Context, participantID int64, slot domain.Slot) ([]domain.Session, error) {
	found, err := d.sessions.FindOverlapping(ctx, participantID, slot, excludedFromConflicts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(found))
	for _, s := range found {
		if !s.HasParticipant(participantID) || s.Status == domain.StatusCancelled {
			continue
		}
		if slot.Overlaps(s.Slot()) {
			out = append(out, s)
		}
	}
	return out, nil
}

// HasConflict reports whether Conflicts is non-empty.
func (d *OverlapDetector) HasConflict(ctx context.Context, participantID int64, slot domain.Slot) (bool, error) {
	c, err := d.Conflicts(ctx, participantID, slot)
	if err != nil {
		return false, err
	}
	return len(c) > 0, nil
}

func sessionIDs(sessions []domain.Session) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
