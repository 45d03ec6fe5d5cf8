package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mentorship/internal/app"
	"mentorship/internal/domain"
)

func newSeedCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the demo students, admins and mentors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := r.svc.Seeder.Seed(cmd.Context())
			if err != nil {
				return err
			}
			printParticipants(cmd.OutOrStdout(), ps)
			return nil
		},
	}
}

func newMentorsCommand(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mentors",
		Short: "Query mentors",
	}

	var start string
	available := &cobra.Command{
		Use:   "available",
		Short: "List mentors free for the one-hour slot starting at --start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTime("startTime", start)
			if err != nil {
				return err
			}
			mentors, err := r.svc.Availability.FindAvailableMentors(cmd.Context(), domain.SlotOf(t))
			if err != nil {
				return err
			}
			printParticipants(cmd.OutOrStdout(), mentors)
			return nil
		},
	}
	available.Flags().StringVar(&start, "start", "", "slot start, RFC 3339 (e.g. 2024-01-10T09:00:00Z)")
	_ = available.MarkFlagRequired("start")

	cmd.AddCommand(available)
	return cmd
}

func newReviewCommand(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "review",
		Aliases: []string{"reviews"},
		Short:   "Create and manage review sessions",
	}
	cmd.AddCommand(
		newReviewCreateCommand(r),
		newReviewIntentCommand(r, "cancel", "Cancel a scheduled review (mentor or student)"),
		newReviewIntentCommand(r, "start", "Start a scheduled review (mentor only)"),
		newReviewCompleteCommand(r),
		newReviewStatusCommand(r),
		newReviewListCommand(r),
		newReviewShowCommand(r),
	)
	return cmd
}

func newReviewCreateCommand(r *root) *cobra.Command {
	var (
		mentor, student int64
		start           string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book a one-hour review between a mentor and a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTime("startTime", start)
			if err != nil {
				return err
			}
			s, err := r.svc.Scheduling.Create(cmd.Context(), app.CreateRequest{
				MentorID:  mentor,
				StudentID: student,
				StartTime: t,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Scheduled review #%d", s.ID)))
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().Int64Var(&mentor, "mentor", 0, "mentor id")
	cmd.Flags().Int64Var(&student, "student", 0, "student id")
	cmd.Flags().StringVar(&start, "start", "", "start time, RFC 3339")
	for _, f := range []string{"mentor", "student", "start"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newReviewIntentCommand(r *root, name, short string) *cobra.Command {
	var actor int64
	cmd := &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var s *domain.Session
			switch name {
			case "cancel":
				s, err = r.svc.Scheduling.Cancel(cmd.Context(), id, actor)
			case "start":
				s, err = r.svc.Scheduling.Start(cmd.Context(), id, actor)
			}
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	addActorFlag(cmd, &actor)
	return cmd
}

func newReviewCompleteCommand(r *root) *cobra.Command {
	var (
		actor   int64
		grade   int
		comment string
	)
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Grade and complete an in-progress review (mentor only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := r.svc.Scheduling.Complete(cmd.Context(), id, actor, grade, comment)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	addActorFlag(cmd, &actor)
	cmd.Flags().IntVar(&grade, "grade", 0, fmt.Sprintf("grade from %d to %d", domain.MinGrade, domain.MaxGrade))
	cmd.Flags().StringVar(&comment, "comment", "", "feedback for the student")
	return cmd
}

func newReviewStatusCommand(r *root) *cobra.Command {
	var (
		actor   int64
		to      string
		grade   int
		comment string
	)
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Move a review to another status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := domain.ParseStatus(to)
			if err != nil {
				return err
			}
			change := domain.StatusChange{Status: st}
			if cmd.Flags().Changed("grade") {
				change.Grade = &grade
			}
			if cmd.Flags().Changed("comment") {
				change.Comment = &comment
			}
			s, err := r.svc.Scheduling.UpdateStatus(cmd.Context(), id, actor, change)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	addActorFlag(cmd, &actor)
	cmd.Flags().StringVar(&to, "to", "", "target status: in_progress, complete, cancelled")
	cmd.Flags().IntVar(&grade, "grade", 0, "grade, required for complete")
	cmd.Flags().StringVar(&comment, "comment", "", "comment, required for complete")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newReviewListCommand(r *root) *cobra.Command {
	var actor, user int64
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the reviews visible to --as, or those of --user (admins only)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				sessions []domain.Session
				err      error
			)
			if cmd.Flags().Changed("user") {
				sessions, err = r.svc.Scheduling.ListSessionsForParticipant(cmd.Context(), actor, user)
			} else {
				sessions, err = r.svc.Scheduling.ListSessions(cmd.Context(), actor)
			}
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}
	addActorFlag(cmd, &actor)
	cmd.Flags().Int64Var(&user, "user", 0, "list the reviews of this participant")
	return cmd
}

func newReviewShowCommand(r *root) *cobra.Command {
	var actor int64
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := r.svc.Scheduling.GetSession(cmd.Context(), id, actor)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	addActorFlag(cmd, &actor)
	return cmd
}

func addActorFlag(cmd *cobra.Command, actor *int64) {
	cmd.Flags().Int64Var(actor, "as", 0, "id of the participant performing the action")
	_ = cmd.MarkFlagRequired("as")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid review id %q", s)}
	}
	return id, nil
}

func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "must be an RFC 3339 timestamp"}
	}
	return t, nil
}
