package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinGrade = 1
	MaxGrade = 10
)

// StatusChange is a requested transition plus the completion payload.
type StatusChange struct {
	Status  Status
	Grade   *int
	Comment *string
}

type edge struct{ from, to Status }

// guard runs after the edge itself is known to be legal.
type guard func(s Session, c StatusChange, now time.Time) error

var transitions = map[edge]guard{
	{StatusScheduled, StatusCancelled}:  nil,
	{StatusScheduled, StatusInProgress}: guardStarted,
	{StatusInProgress, StatusComplete}:  guardCompletion,
}

// CanTransition reports whether from -> to is an edge of the state machine,
// ignoring guards.
func CanTransition(from, to Status) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// CheckTransition validates c against the current session at time now.
func CheckTransition(s Session, c StatusChange, now time.Time) error {
	g, ok := transitions[edge{s.Status, c.Status}]
	if !ok {
		return &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("unable to transition from %s to %s", s.Status, c.Status),
		}
	}
	if g == nil {
		return nil
	}
	return g(s, c, now)
}

func guardStarted(s Session, _ StatusChange, now time.Time) error {
	if !now.After(s.StartTime) {
		return &ValidationError{Field: "status", Reason: "unable to start review: too early"}
	}
	return nil
}

func guardCompletion(_ Session, c StatusChange, _ time.Time) error {
	if c.Grade == nil {
		return &ValidationError{Field: "grade", Reason: "is required to complete a review"}
	}
	if *c.Grade < MinGrade || *c.Grade > MaxGrade {
		return &ValidationError{Field: "grade", Reason: fmt.Sprintf("must be between %d and %d", MinGrade, MaxGrade)}
	}
	if c.Comment == nil || strings.TrimSpace(*c.Comment) == "" {
		return &ValidationError{Field: "comment", Reason: "is required to complete a review"}
	}
	return nil
}

// Apply returns s moved to c.Status. Grade and comment are carried only when
// completing; any other transition leaves them empty.
func Apply(s Session, c StatusChange, now time.Time) Session {
	s.Status = c.Status
	s.UpdatedAt = now
	if c.Status == StatusComplete {
		g := *c.Grade
		cm := *c.Comment
		s.Grade = &g
		s.Comment = &cm
	} else {
		s.Grade = nil
		s.Comment = nil
	}
	return s
}
