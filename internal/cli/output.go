package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"mentorship/internal/domain"
)

const (
	colorAccent  = "#7C3AED"
	colorMuted   = "#6D7383"
	colorError   = "#EF4444"
	colorSuccess = "#22C55E"
	colorWarning = "#F59E0B"
	colorInfo    = "#A78BFA"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorError))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))

	statusStyles = map[domain.Status]lipgloss.Style{
		domain.StatusScheduled:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorInfo)),
		domain.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		domain.StatusComplete:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		domain.StatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)),
	}
)

const timeLayout = "2006-01-02 15:04 MST"

func statusBadge(st domain.Status, width int) string {
	cell := fmt.Sprintf("%-*s", width, st)
	if style, ok := statusStyles[st]; ok {
		return style.Render(cell)
	}
	return cell
}

func printSessions(w io.Writer, sessions []domain.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No reviews found."))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %-8s %-8s %-22s %-12s %s", "ID", "MENTOR", "STUDENT", "START", "STATUS", "GRADE")))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("-", 66)))
	for _, s := range sessions {
		grade := "-"
		if s.Grade != nil {
			grade = fmt.Sprintf("%d", *s.Grade)
		}
		fmt.Fprintf(w, "%-5d %-8d %-8d %-22s %s %s\n",
			s.ID, s.MentorID, s.StudentID, s.StartTime.UTC().Format(timeLayout), statusBadge(s.Status, 12), grade)
	}
}

func printSession(w io.Writer, s *domain.Session) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Review #%d", s.ID)))
	fmt.Fprintf(w, "  Mentor:  %d\n", s.MentorID)
	fmt.Fprintf(w, "  Student: %d\n", s.StudentID)
	fmt.Fprintf(w, "  Start:   %s\n", s.StartTime.UTC().Format(timeLayout))
	fmt.Fprintf(w, "  End:     %s\n", s.EndTime().UTC().Format(timeLayout))
	fmt.Fprintf(w, "  Status:  %s\n", statusBadge(s.Status, 0))
	if s.Grade != nil {
		fmt.Fprintf(w, "  Grade:   %d\n", *s.Grade)
	}
	if s.Comment != nil {
		fmt.Fprintf(w, "  Comment: %s\n", *s.Comment)
	}
	fmt.Fprintf(w, "  Updated: %s\n", mutedStyle.Render(s.UpdatedAt.UTC().Format(time.RFC3339)))
}

func printParticipants(w io.Writer, ps []domain.Participant) {
	if len(ps) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No participants found."))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-5s %-10s %-24s %s", "ID", "NAME", "EMAIL", "ROLE")))
	for _, p := range ps {
		fmt.Fprintf(w, "%-5d %-10s %-24s %s\n", p.ID, p.Name, p.Email, p.Role)
	}
}

// PrintError writes err to w in the error style.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}
