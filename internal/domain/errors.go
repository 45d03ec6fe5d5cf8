package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds. Every typed error below matches exactly one of these with
// errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
)

// ValidationError is a caller-fixable problem with the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports that a participant is already booked, or that a
// session changed underneath a concurrent update.
type ConflictError struct {
	ParticipantID int64
	SessionIDs    []int64
	Reason        string
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if e.ParticipantID != 0 {
		fmt.Fprintf(&b, " (participant %d", e.ParticipantID)
		if len(e.SessionIDs) > 0 {
			ids := make([]string, len(e.SessionIDs))
			for i, id := range e.SessionIDs {
				ids[i] = strconv.FormatInt(id, 10)
			}
			fmt.Fprintf(&b, ", sessions %s", strings.Join(ids, ","))
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// AuthorizationError means the actor may not act on the session.
type AuthorizationError struct {
	ActorID   int64
	SessionID int64
	Reason    string
}

func (e *AuthorizationError) Error() string {
	if e.SessionID == 0 {
		return fmt.Sprintf("actor %d: %s", e.ActorID, e.Reason)
	}
	return fmt.Sprintf("actor %d on session %d: %s", e.ActorID, e.SessionID, e.Reason)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

// NotFoundError names the missing entity and id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
