package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mentorship/internal/domain"
)

// SchedulingService creates review sessions and drives their lifecycle.
type SchedulingService struct {
	participants domain.ParticipantDirectory
	sessions     domain.SessionStore
	clock        domain.Clock
	logger       *slog.Logger
}

// NewSchedulingService creates a SchedulingService over the given
// collaborators.
func NewSchedulingService(participants domain.ParticipantDirectory, sessions domain.SessionStore, clock domain.Clock, opts ...Option) *SchedulingService {
	cfg := newSettings(opts)
	return &SchedulingService{
		participants: participants,
		sessions:     sessions,
		clock:        clock,
		logger:       cfg.logger,
	}
}

// CreateRequest holds the data needed to book a session.
type CreateRequest struct {
	MentorID  int64
	StudentID int64
	StartTime time.Time
}

// Create books a one-hour session. It fails without writing anything if the
// start is off the half-hour grid, either participant has the wrong role, or
// either participant is already booked during the slot.
func (s *SchedulingService) Create(ctx context.Context, req CreateRequest) (*domain.Session, error) {
	if req.MentorID == req.StudentID {
		return nil, &domain.ValidationError{Field: "studentId", Reason: "must differ from mentorId"}
	}
	if err := domain.ValidateStart("startTime", req.StartTime); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, req.MentorID, domain.RoleMentor, "mentorId"); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, req.StudentID, domain.RoleStudent, "studentId"); err != nil {
		return nil, err
	}

	start := req.StartTime.UTC()
	slot := domain.SlotOf(start)

	var created *domain.Session
	err := s.sessions.WithParticipantLock(ctx, []int64{req.MentorID, req.StudentID}, func(ctx context.Context, tx domain.SessionStore) error {
		detector := NewOverlapDetector(tx)
		for _, id := range []int64{req.MentorID, req.StudentID} {
			conflicts, err := detector.Conflicts(ctx, id, slot)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &domain.ConflictError{
					ParticipantID: id,
					SessionIDs:    sessionIDs(conflicts),
					Reason:        "cannot create review: it conflicts with another review",
				}
			}
		}

		now := s.clock.Now().UTC()
		var err error
		created, err = tx.Insert(ctx, domain.Session{
			MentorID:  req.MentorID,
			StudentID: req.StudentID,
			StartTime: start,
			Status:    domain.StatusScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "review not created",
			"mentor_id", req.MentorID, "student_id", req.StudentID, "start", start, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "review scheduled",
		"review_id", created.ID, "mentor_id", created.MentorID, "student_id", created.StudentID, "start", created.StartTime)
	return created, nil
}

// UpdateStatus moves a session along the state machine on behalf of actorID,
// who must be its mentor or student. Not-found is reported before
// authorization.
func (s *SchedulingService) UpdateStatus(ctx context.Context, sessionID, actorID int64, change domain.StatusChange) (*domain.Session, error) {
	return s.transition(ctx, sessionID, actorID, change, false)
}

// Cancel cancels a scheduled session. Either participant may cancel.
func (s *SchedulingService) Cancel(ctx context.Context, sessionID, actorID int64) (*domain.Session, error) {
	return s.transition(ctx, sessionID, actorID, domain.StatusChange{Status: domain.StatusCancelled}, false)
}

// Start marks a session in progress. Only its mentor may start it, and not
// before the scheduled start.
func (s *SchedulingService) Start(ctx context.Context, sessionID, actorID int64) (*domain.Session, error) {
	return s.transition(ctx, sessionID, actorID, domain.StatusChange{Status: domain.StatusInProgress}, true)
}

// Complete grades an in-progress session. Only its mentor may complete it.
func (s *SchedulingService) Complete(ctx context.Context, sessionID, actorID int64, grade int, comment string) (*domain.Session, error) {
	return s.transition(ctx, sessionID, actorID, domain.StatusChange{
		Status:  domain.StatusComplete,
		Grade:   &grade,
		Comment: &comment,
	}, true)
}

func (s *SchedulingService) transition(ctx context.Context, sessionID, actorID int64, change domain.StatusChange, mentorOnly bool) (*domain.Session, error) {
	current, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load review %d: %w", sessionID, err)
	}
	if current == nil {
		return nil, &domain.NotFoundError{Entity: "review", ID: sessionID}
	}
	if !current.HasParticipant(actorID) {
		return nil, &domain.AuthorizationError{ActorID: actorID, SessionID: sessionID, Reason: "actor is not a participant of this review"}
	}
	if mentorOnly && current.MentorID != actorID {
		return nil, &domain.AuthorizationError{ActorID: actorID, SessionID: sessionID, Reason: "only the mentor may " + verb(change.Status) + " this review"}
	}

	now := s.clock.Now().UTC()
	if err := domain.CheckTransition(*current, change, now); err != nil {
		s.logger.WarnContext(ctx, "review transition rejected",
			"review_id", sessionID, "from", current.Status, "to", change.Status, "error", err)
		return nil, err
	}

	next := domain.Apply(*current, change, now)
	updated, err := s.sessions.Update(ctx, next, current.Status)
	if err != nil {
		return nil, fmt.Errorf("update review %d: %w", sessionID, err)
	}
	if updated == nil {
		return nil, &domain.ConflictError{Reason: fmt.Sprintf("review %d was modified concurrently", sessionID)}
	}

	s.logger.InfoContext(ctx, "review transitioned",
		"review_id", sessionID, "actor_id", actorID, "from", current.Status, "to", updated.Status)
	return updated, nil
}

// GetSession returns a session to one of its participants or to an admin.
func (s *SchedulingService) GetSession(ctx context.Context, sessionID, actorID int64) (*domain.Session, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load review %d: %w", sessionID, err)
	}
	if sess == nil {
		return nil, &domain.NotFoundError{Entity: "review", ID: sessionID}
	}
	if sess.HasParticipant(actorID) {
		return sess, nil
	}
	actor, err := s.participant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, &domain.AuthorizationError{ActorID: actorID, SessionID: sessionID, Reason: "actor is not a participant of this review"}
	}
	return sess, nil
}

// ListSessions returns the sessions visible to actorID: everything for an
// admin, otherwise the sessions they mentor or attend as a student.
func (s *SchedulingService) ListSessions(ctx context.Context, actorID int64) ([]domain.Session, error) {
	actor, err := s.participant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var f domain.SessionFilter
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleMentor:
		f.MentorID = actor.ID
	case domain.RoleStudent:
		f.StudentID = actor.ID
	default:
		return nil, &domain.AuthorizationError{ActorID: actorID, Reason: "unknown role " + string(actor.Role)}
	}
	return s.sessions.List(ctx, f)
}

// ListSessionsForParticipant lists every session userID takes part in.
// Admin only.
func (s *SchedulingService) ListSessionsForParticipant(ctx context.Context, actorID, userID int64) ([]domain.Session, error) {
	actor, err := s.participant(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, &domain.AuthorizationError{ActorID: actorID, Reason: "only admins may list another participant's reviews"}
	}
	return s.sessions.List(ctx, domain.SessionFilter{ParticipantID: userID})
}

func (s *SchedulingService) participant(ctx context.Context, id int64) (*domain.Participant, error) {
	p, err := s.participants.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load participant %d: %w", id, err)
	}
	if p == nil {
		return nil, &domain.NotFoundError{Entity: "participant", ID: id}
	}
	return p, nil
}

func (s *SchedulingService) requireRole(ctx context.Context, id int64, role domain.Role, field string) error {
	p, err := s.participant(ctx, id)
	if err != nil {
		return err
	}
	if p.Role != role {
		return &domain.ValidationError{Field: field, Reason: fmt.Sprintf("participant %d is not a %s", id, role)}
	}
	return nil
}

func verb(st domain.Status) string {
	switch st {
	case domain.StatusInProgress:
		return "start"
	case domain.StatusComplete:
		return "complete"
	case domain.StatusCancelled:
		return "cancel"
	}
	return "update"
}
