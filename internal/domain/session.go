package domain

import (
	"context"
	"time"
)

// Status is the lifecycle state of a review session.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus accepts the stored form of a status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusScheduled, StatusInProgress, StatusComplete, StatusCancelled:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Reason: "unknown status " + s}
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusCancelled
}

// Session is a one-hour mentor/student review. EndTime is always derived
// from StartTime; stores may persist it for querying but never independently.
type Session struct {
	ID        int64     `json:"id"`
	MentorID  int64     `json:"mentorId"`
	StudentID int64     `json:"studentId"`
	StartTime time.Time `json:"startTime"`
	Status    Status    `json:"status"`
	Grade     *int      `json:"grade,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EndTime is StartTime plus one hour.
func (s Session) EndTime() time.Time { return s.StartTime.Add(SlotLength) }

// Slot returns the interval the session occupies.
func (s Session) Slot() Slot { return SlotOf(s.StartTime) }

// HasParticipant reports whether id is the mentor or the student.
func (s Session) HasParticipant(id int64) bool {
	return s.MentorID == id || s.StudentID == id
}

// SessionFilter narrows List. Zero fields match everything.
type SessionFilter struct {
	MentorID      int64
	StudentID     int64
	ParticipantID int64
}

// SessionStore is the persistence port for review sessions.
//
// FindByID returns (nil, nil) when the id is unknown. Update is a
// compare-and-set: it only writes when the stored status still equals from,
// and returns (nil, nil) otherwise. WithParticipantLock runs fn as a critical
// section that excludes every other WithParticipantLock call sharing one of
// the ids, and hands fn a store bound to that section.
type SessionStore interface {
	Insert(ctx context.Context, s Session) (*Session, error)
	FindByID(ctx context.Context, id int64) (*Session, error)
	FindOverlapping(ctx context.Context, participantID int64, slot Slot, exclude []Status) ([]Session, error)
	Update(ctx context.Context, s Session, from Status) (*Session, error)
	List(ctx context.Context, f SessionFilter) ([]Session, error)
	WithParticipantLock(ctx context.Context, participantIDs []int64, fn func(ctx context.Context, tx SessionStore) error) error
}

// Clock abstracts the current time so guards are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
