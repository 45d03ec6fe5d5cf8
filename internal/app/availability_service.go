package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"mentorship/internal/domain"
)

// AvailabilityService finds mentors who are free during a slot.
type AvailabilityService struct {
	participants domain.ParticipantDirectory
	detector     *OverlapDetector
	logger       *slog.Logger
}

// NewAvailabilityService creates an AvailabilityService. It shares the
// overlap predicate used when creating sessions.
func NewAvailabilityService(participants domain.ParticipantDirectory, sessions domain.SessionStore, opts ...Option) *AvailabilityService {
	cfg := newSettings(opts)
	return &AvailabilityService{
		participants: participants,
		detector:     NewOverlapDetector(sessions),
		logger:       cfg.logger,
	}
}

// FindAvailableMentors returns every mentor without a non-cancelled session
// overlapping slot, ordered by id.
func (s *AvailabilityService) FindAvailableMentors(ctx context.Context, slot domain.Slot) ([]domain.Participant, error) {
	if err := domain.ValidateStart("startTime", slot.Start); err != nil {
		return nil, err
	}
	if !slot.End.Equal(slot.Start.Add(domain.SlotLength)) {
		return nil, &domain.ValidationError{Field: "endTime", Reason: "must be one hour after startTime"}
	}

	mentors, err := s.participants.ListByRole(ctx, domain.RoleMentor)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}

	available := make([]domain.Participant, 0, len(mentors))
	for _, m := range mentors {
		if m.Role != domain.RoleMentor {
			continue
		}
		busy, err := s.detector.HasConflict(ctx, m.ID, slot)
		if err != nil {
			return nil, fmt.Errorf("check mentor %d: %w", m.ID, err)
		}
		if !busy {
			available = append(available, m)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].ID < available[j].ID })

	s.logger.DebugContext(ctx, "available mentors",
		"start", slot.Start, "mentors", len(mentors), "available", len(available))
	return available, nil
}
