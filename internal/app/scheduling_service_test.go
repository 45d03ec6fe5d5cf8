package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mentorship/internal/adapter/memory"
	"mentorship/internal/app"
	"mentorship/internal/domain"
)

const (
	mentorA  int64 = 1
	studentA int64 = 2
	studentB int64 = 3
	adminA   int64 = 4
	mentorB  int64 = 5
)

var roles = map[int64]domain.Role{
	mentorA:  domain.RoleMentor,
	studentA: domain.RoleStudent,
	studentB: domain.RoleStudent,
	adminA:   domain.RoleAdmin,
	mentorB:  domain.RoleMentor,
}

func TestCreate_Validation(t *testing.T) {
	start := at("2024-01-10T09:00:00Z")

	tests := []struct {
		name      string
		req       app.CreateRequest
		kind      error
		wantField string
	}{
		{"same participant", app.CreateRequest{MentorID: mentorA, StudentID: mentorA, StartTime: start}, domain.ErrValidation, "studentId"},
		{"same participant misaligned", app.CreateRequest{MentorID: studentA, StudentID: studentA, StartTime: start.Add(7 * time.Minute)}, domain.ErrValidation, "studentId"},
		{"misaligned", app.CreateRequest{MentorID: mentorA, StudentID: studentA, StartTime: start.Add(15 * time.Minute)}, domain.ErrValidation, "startTime"},
		{"zero start", app.CreateRequest{MentorID: mentorA, StudentID: studentA}, domain.ErrValidation, "startTime"},
		{"mentor not a mentor", app.CreateRequest{MentorID: studentB, StudentID: studentA, StartTime: start}, domain.ErrValidation, "mentorId"},
		{"student not a student", app.CreateRequest{MentorID: mentorA, StudentID: mentorB, StartTime: start}, domain.ErrValidation, "studentId"},
		{"admin as student", app.CreateRequest{MentorID: mentorA, StudentID: adminA, StartTime: start}, domain.ErrValidation, "studentId"},
		{"unknown mentor", app.CreateRequest{MentorID: 99, StudentID: studentA, StartTime: start}, domain.ErrNotFound, ""},
		{"unknown student", app.CreateRequest{MentorID: mentorA, StudentID: 98, StartTime: start}, domain.ErrNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockSessionStore{
				insertFn: func(context.Context, domain.Session) (*domain.Session, error) {
					t.Fatal("insert must not be called")
					return nil, nil
				},
			}
			svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(start))
			_, err := svc.Create(context.Background(), tc.req)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if tc.wantField == "" {
				return
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.wantField {
				t.Fatalf("expected validation error on %s, got %v", tc.wantField, err)
			}
		})
	}
}

func TestCreate_Success(t *testing.T) {
	now := at("2024-01-09T12:00:00Z")
	start := at("2024-01-10T10:30:00+01:00")

	var inserted domain.Session
	store := &mockSessionStore{
		insertFn: func(_ context.Context, s domain.Session) (*domain.Session, error) {
			inserted = s
			s.ID = 42
			return &s, nil
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(now))

	got, err := svc.Create(context.Background(), app.CreateRequest{MentorID: mentorA, StudentID: studentA, StartTime: start})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 42 || got.Status != domain.StatusScheduled {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !inserted.StartTime.Equal(start) || inserted.StartTime.Location() != time.UTC {
		t.Errorf("expected start normalised to UTC, got %v", inserted.StartTime)
	}
	if got.EndTime().Sub(got.StartTime) != time.Hour {
		t.Errorf("expected a one hour session, got %v", got.EndTime().Sub(got.StartTime))
	}
	if !inserted.CreatedAt.Equal(now) || !inserted.UpdatedAt.Equal(now) {
		t.Errorf("expected audit timestamps from clock, got %v / %v", inserted.CreatedAt, inserted.UpdatedAt)
	}
	if inserted.Grade != nil || inserted.Comment != nil {
		t.Error("expected no grade or comment on a new session")
	}
}

func TestCreate_ConflictOnStudent(t *testing.T) {
	start := at("2024-01-10T09:00:00Z")

	var queried []int64
	store := &mockSessionStore{
		overlapFn: func(_ context.Context, id int64, _ domain.Slot, exclude []domain.Status) ([]domain.Session, error) {
			queried = append(queried, id)
			if len(exclude) != 1 || exclude[0] != domain.StatusCancelled {
				t.Errorf("expected cancelled to be excluded, got %v", exclude)
			}
			if id != studentA {
				return nil, nil
			}
			return []domain.Session{{ID: 7, MentorID: mentorB, StudentID: studentA, StartTime: start.Add(30 * time.Minute), Status: domain.StatusScheduled}}, nil
		},
		insertFn: func(context.Context, domain.Session) (*domain.Session, error) {
			t.Fatal("insert must not be called on conflict")
			return nil, nil
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(start))

	_, err := svc.Create(context.Background(), app.CreateRequest{MentorID: mentorA, StudentID: studentA, StartTime: start})
	var ce *domain.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.ParticipantID != studentA || len(ce.SessionIDs) != 1 || ce.SessionIDs[0] != 7 {
		t.Errorf("unexpected conflict detail: %+v", ce)
	}
	if len(queried) != 2 || queried[0] != mentorA || queried[1] != studentA {
		t.Errorf("expected mentor then student to be checked, got %v", queried)
	}
}

func TestCreate_IgnoresNonOverlappingStoreResults(t *testing.T) {
	start := at("2024-01-10T10:00:00Z")
	store := &mockSessionStore{
		overlapFn: func(_ context.Context, id int64, _ domain.Slot, _ []domain.Status) ([]domain.Session, error) {
			// Touching and cancelled sessions are not conflicts even if a store returns them.
			return []domain.Session{
				{ID: 1, MentorID: id, StudentID: 77, StartTime: start.Add(-time.Hour), Status: domain.StatusScheduled},
				{ID: 2, MentorID: id, StudentID: 77, StartTime: start, Status: domain.StatusCancelled},
			}, nil
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(start))
	if _, err := svc.Create(context.Background(), app.CreateRequest{MentorID: mentorA, StudentID: studentA, StartTime: start}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_RepoError(t *testing.T) {
	start := at("2024-01-10T09:00:00Z")
	store := &mockSessionStore{
		insertFn: func(context.Context, domain.Session) (*domain.Session, error) {
			return nil, errors.New("db down")
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(start))
	_, err := svc.Create(context.Background(), app.CreateRequest{MentorID: mentorA, StudentID: studentA, StartTime: start})
	if err == nil {
		t.Fatal("expected error from repo")
	}
	for _, k := range []error{domain.ErrValidation, domain.ErrConflict, domain.ErrNotFound, domain.ErrUnauthorized} {
		if errors.Is(err, k) {
			t.Errorf("infrastructure error must not be classified as %v", k)
		}
	}
}

func TestUpdateStatus_NotFoundBeforeAuthorization(t *testing.T) {
	svc := app.NewSchedulingService(directoryOf(roles), &mockSessionStore{}, newFakeClock(time.Now()))
	_, err := svc.UpdateStatus(context.Background(), 10, 999, domain.StatusChange{Status: domain.StatusCancelled})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 10 {
		t.Fatalf("expected NotFoundError for review 10, got %v", err)
	}
}

func TestUpdateStatus_OutsiderRejected(t *testing.T) {
	start := at("2024-01-10T09:00:00Z")
	store := &mockSessionStore{
		findFn: func(_ context.Context, id int64) (*domain.Session, error) {
			return &domain.Session{ID: id, MentorID: mentorA, StudentID: studentA, StartTime: start, Status: domain.StatusScheduled}, nil
		},
		updateFn: func(context.Context, domain.Session, domain.Status) (*domain.Session, error) {
			t.Fatal("update must not be called")
			return nil, nil
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(start.Add(time.Hour)))

	for _, st := range []domain.Status{domain.StatusScheduled, domain.StatusInProgress, domain.StatusComplete, domain.StatusCancelled} {
		for _, actor := range []int64{studentB, adminA, mentorB} {
			_, err := svc.UpdateStatus(context.Background(), 1, actor, domain.StatusChange{Status: st})
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("actor %d -> %s: expected authorization error, got %v", actor, st, err)
			}
		}
	}
}

func TestUpdateStatus_ConcurrentModification(t *testing.T) {
	store := &mockSessionStore{
		findFn: func(_ context.Context, id int64) (*domain.Session, error) {
			return &domain.Session{ID: id, MentorID: mentorA, StudentID: studentA, Status: domain.StatusScheduled}, nil
		},
		updateFn: func(_ context.Context, s domain.Session, from domain.Status) (*domain.Session, error) {
			if from != domain.StatusScheduled || s.Status != domain.StatusCancelled {
				t.Errorf("unexpected compare-and-set %s -> %s", from, s.Status)
			}
			return nil, nil
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(time.Now()))
	_, err := svc.Cancel(context.Background(), 1, studentA)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestStartAndComplete_MentorOnly(t *testing.T) {
	start := at("2024-01-10T09:00:00Z")
	status := domain.StatusScheduled
	store := &mockSessionStore{
		findFn: func(_ context.Context, id int64) (*domain.Session, error) {
			return &domain.Session{ID: id, MentorID: mentorA, StudentID: studentA, StartTime: start, Status: status}, nil
		},
	}
	svc := app.NewSchedulingService(directoryOf(roles), store, newFakeClock(start.Add(time.Minute)))
	ctx := context.Background()

	if _, err := svc.Start(ctx, 1, studentA); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("student start: expected authorization error, got %v", err)
	}
	if _, err := svc.Start(ctx, 1, mentorA); err != nil {
		t.Errorf("mentor start: unexpected error %v", err)
	}

	status = domain.StatusInProgress
	if _, err := svc.Complete(ctx, 1, studentA, 9, "great"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("student complete: expected authorization error, got %v", err)
	}
	got, err := svc.Complete(ctx, 1, mentorA, 9, "great")
	if err != nil {
		t.Fatalf("mentor complete: unexpected error %v", err)
	}
	if got.Grade == nil || *got.Grade != 9 || got.Comment == nil || *got.Comment != "great" {
		t.Errorf("expected grade and comment to be set, got %+v", got)
	}
	if _, err := svc.Complete(ctx, 1, mentorA, 0, "great"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad grade: expected validation error, got %v", err)
	}

	// The generic path lets the student move a session too, as long as the edge is legal.
	status = domain.StatusScheduled
	if _, err := svc.UpdateStatus(ctx, 1, studentA, domain.StatusChange{Status: domain.StatusInProgress}); err != nil {
		t.Errorf("student UpdateStatus: unexpected error %v", err)
	}
}

// --- scenarios against the in-memory adapter ---

type env struct {
	svc      *app.SchedulingService
	avail    *app.AvailabilityService
	clock    *fakeClock
	mentor   int64
	mentor2  int64
	students []int64
	admin    int64
}

func newEnv(t *testing.T, now time.Time, students int) *env {
	t.Helper()
	db := memory.New()
	ctx := context.Background()

	add := func(name string, role domain.Role) int64 {
		p, err := db.AddParticipant(ctx, domain.Participant{Name: name, Email: name + "@test.com", Role: role})
		if err != nil {
			t.Fatalf("AddParticipant: %v", err)
		}
		return p.ID
	}

	e := &env{clock: newFakeClock(now)}
	e.mentor = add("mentor0", domain.RoleMentor)
	e.mentor2 = add("mentor1", domain.RoleMentor)
	e.admin = add("admin0", domain.RoleAdmin)
	for i := range students {
		e.students = append(e.students, add(fmt.Sprintf("student%d", i), domain.RoleStudent))
	}

	sessions := db.NewSessionRepo()
	e.svc = app.NewSchedulingService(db, sessions, e.clock)
	e.avail = app.NewAvailabilityService(db, sessions)
	return e
}

func TestScenario_MentorDoubleBooking(t *testing.T) {
	e := newEnv(t, at("2024-01-01T00:00:00Z"), 3)
	ctx := context.Background()

	first, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[0], StartTime: at("2024-01-10T09:00:00Z")})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}

	_, err = e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[1], StartTime: at("2024-01-10T09:30:00Z")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("09:30: expected conflict, got %v", err)
	}

	next, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[1], StartTime: at("2024-01-10T10:00:00Z")})
	if err != nil {
		t.Fatalf("10:00: unexpected error %v", err)
	}
	if next.Status != domain.StatusScheduled {
		t.Errorf("expected scheduled, got %s", next.Status)
	}

	// The first student is busy at 09:30 as well, even with another mentor.
	_, err = e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor2, StudentID: e.students[0], StartTime: at("2024-01-10T09:30:00Z")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("student double booking: expected conflict, got %v", err)
	}

	if _, err := e.svc.Cancel(ctx, first.ID, e.mentor); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[2], StartTime: at("2024-01-10T08:30:00Z")}); err != nil {
		t.Fatalf("08:30 after cancel: unexpected error %v", err)
	}
}

func TestScenario_CancelledFirstThenRebook(t *testing.T) {
	e := newEnv(t, at("2024-01-01T00:00:00Z"), 2)
	ctx := context.Background()

	first, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[0], StartTime: at("2024-01-10T09:00:00Z")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.svc.Cancel(ctx, first.ID, e.students[0]); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	for _, start := range []string{"2024-01-10T10:00:00Z", "2024-01-10T09:00:00Z"} {
		s, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[1], StartTime: at(start)})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", start, err)
		}
		if s.Status != domain.StatusScheduled {
			t.Errorf("%s: expected scheduled, got %s", start, s.Status)
		}
	}
}

func TestScenario_TooEarlyToStart(t *testing.T) {
	now := at("2024-01-10T08:00:00Z")
	e := newEnv(t, now, 1)
	ctx := context.Background()

	s, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[0], StartTime: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = e.svc.UpdateStatus(ctx, s.ID, e.mentor, domain.StatusChange{Status: domain.StatusInProgress})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected too-early validation error, got %v", err)
	}

	e.clock.Set(s.StartTime)
	if _, err := e.svc.Start(ctx, s.ID, e.mentor); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("exactly at start: expected validation error, got %v", err)
	}

	e.clock.Set(s.StartTime.Add(time.Second))
	started, err := e.svc.UpdateStatus(ctx, s.ID, e.mentor, domain.StatusChange{Status: domain.StatusInProgress})
	if err != nil {
		t.Fatalf("start after start time: %v", err)
	}
	if started.Status != domain.StatusInProgress {
		t.Fatalf("expected in progress, got %s", started.Status)
	}

	done, err := e.svc.Complete(ctx, s.ID, e.mentor, 8, "clear explanations")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != domain.StatusComplete || *done.Grade != 8 {
		t.Fatalf("unexpected completed session %+v", done)
	}

	// Terminal states have no way out.
	for _, st := range []domain.Status{domain.StatusScheduled, domain.StatusInProgress, domain.StatusCancelled, domain.StatusComplete} {
		if _, err := e.svc.UpdateStatus(ctx, s.ID, e.mentor, domain.StatusChange{Status: st}); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("complete -> %s: expected validation error, got %v", st, err)
		}
	}
}

func TestScenario_OutsiderCannotUpdate(t *testing.T) {
	e := newEnv(t, at("2024-01-10T08:00:00Z"), 2)
	ctx := context.Background()

	s, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[0], StartTime: at("2024-01-10T09:00:00Z")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, st := range []domain.Status{domain.StatusCancelled, domain.StatusInProgress, domain.StatusComplete} {
		for _, actor := range []int64{e.students[1], e.mentor2, e.admin} {
			if _, err := e.svc.UpdateStatus(ctx, s.ID, actor, domain.StatusChange{Status: st}); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("actor %d -> %s: expected authorization error, got %v", actor, st, err)
			}
		}
	}
}

func TestConcurrentCreate_AtMostOneWinner(t *testing.T) {
	const racers = 12
	e := newEnv(t, at("2024-01-01T00:00:00Z"), racers)
	ctx := context.Background()
	base := at("2024-01-10T09:00:00Z")

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := range racers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate between two overlapping slots for the same mentor.
			start := base
			if i%2 == 1 {
				start = base.Add(30 * time.Minute)
			}
			_, errs[i] = e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[i], StartTime: start})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, domain.ErrConflict):
			t.Errorf("expected conflict for losers, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestConcurrentTransitions_SingleApply(t *testing.T) {
	e := newEnv(t, at("2024-01-10T08:00:00Z"), 1)
	ctx := context.Background()

	s, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[0], StartTime: at("2024-01-10T09:00:00Z")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	e.clock.Set(at("2024-01-10T09:05:00Z"))

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, results[i] = e.svc.Cancel(ctx, s.ID, e.students[0])
			} else {
				_, results[i] = e.svc.Start(ctx, s.ID, e.mentor)
			}
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, domain.ErrValidation) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one transition to apply, got %d", ok)
	}
}

func TestListSessions_ByRole(t *testing.T) {
	e := newEnv(t, at("2024-01-01T00:00:00Z"), 2)
	ctx := context.Background()

	mk := func(mentor, student int64, start string) {
		t.Helper()
		if _, err := e.svc.Create(ctx, app.CreateRequest{MentorID: mentor, StudentID: student, StartTime: at(start)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mk(e.mentor, e.students[0], "2024-01-10T11:00:00Z")
	mk(e.mentor, e.students[1], "2024-01-10T09:00:00Z")
	mk(e.mentor2, e.students[0], "2024-01-10T13:00:00Z")

	tests := []struct {
		name  string
		actor int64
		want  int
	}{
		{"admin sees all", e.admin, 3},
		{"mentor sees own", e.mentor, 2},
		{"second mentor", e.mentor2, 1},
		{"student sees own", e.students[0], 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.svc.ListSessions(ctx, tc.actor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("expected %d sessions, got %d", tc.want, len(got))
			}
			for i := 1; i < len(got); i++ {
				if got[i].StartTime.Before(got[i-1].StartTime) {
					t.Error("expected sessions ordered by start time")
				}
			}
		})
	}

	if _, err := e.svc.ListSessions(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown actor: expected not found, got %v", err)
	}

	got, err := e.svc.ListSessionsForParticipant(ctx, e.admin, e.students[0])
	if err != nil || len(got) != 2 {
		t.Fatalf("admin listing for student: %d sessions, err %v", len(got), err)
	}
	if _, err := e.svc.ListSessionsForParticipant(ctx, e.mentor, e.students[0]); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("mentor listing for student: expected authorization error, got %v", err)
	}
}

func TestGetSession(t *testing.T) {
	e := newEnv(t, at("2024-01-01T00:00:00Z"), 2)
	ctx := context.Background()

	s, err := e.svc.Create(ctx, app.CreateRequest{MentorID: e.mentor, StudentID: e.students[0], StartTime: at("2024-01-10T09:00:00Z")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, actor := range []int64{e.mentor, e.students[0], e.admin} {
		if _, err := e.svc.GetSession(ctx, s.ID, actor); err != nil {
			t.Errorf("actor %d: unexpected error %v", actor, err)
		}
	}
	if _, err := e.svc.GetSession(ctx, s.ID, e.students[1]); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("outsider: expected authorization error, got %v", err)
	}
	if _, err := e.svc.GetSession(ctx, s.ID+100, e.students[1]); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected not found, got %v", err)
	}
}
