// Package cli is the command-line driving adapter for the scheduling
// services.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mentorship/internal/config"
)

type root struct {
	cfg     config.Config
	open    Opener
	verbose bool
	logger  *slog.Logger
	svc     *Services
}

// Run executes the command line args and returns the process exit code.
// Errors are printed to stderr.
func Run(ctx context.Context, cfg config.Config, open Opener, args []string, stdout, stderr io.Writer) int {
	r, cmd := newRoot(cfg, open)
	defer func() {
		if err := r.teardown(); err != nil && r.logger != nil {
			r.logger.Warn("close store", "error", err)
		}
	}()

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		PrintError(stderr, err)
	}
	return ExitCode(err)
}

// NewRootCommand builds the command tree. open is called after flags are
// parsed, so --store and --dsn take effect. The store is not closed; use Run
// for that.
func NewRootCommand(cfg config.Config, open Opener) *cobra.Command {
	_, cmd := newRoot(cfg, open)
	return cmd
}

func newRoot(cfg config.Config, open Opener) (*root, *cobra.Command) {
	r := &root{cfg: cfg, open: open}

	cmd := &cobra.Command{
		Use:   "mentorship",
		Short: "Schedule and track mentorship review sessions",
		Long: `mentorship books one-hour review sessions between mentors and students,
prevents double-booking, and moves sessions through their lifecycle:
scheduled -> in_progress -> complete, or scheduled -> cancelled.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&r.cfg.StoreDriver, "store", cfg.StoreDriver, "store driver: memory, sqlite, postgres, gorm-postgres")
	f.StringVar(&r.cfg.DatabaseURL, "dsn", cfg.DatabaseURL, "database DSN or sqlite file path")
	f.BoolVarP(&r.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newSeedCommand(r),
		newMentorsCommand(r),
		newReviewCommand(r),
	)
	return r, cmd
}

func (r *root) setup(cmd *cobra.Command, args []string) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	level := r.cfg.LogLevel
	if r.verbose {
		level = slog.LevelDebug
	}
	r.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	svc, err := r.open(cmd.Context(), r.cfg, r.logger)
	if err != nil {
		return err
	}
	r.svc = svc

	if r.cfg.SeedParticipants {
		if _, err := svc.Seeder.Seed(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}

func (r *root) teardown() error {
	if r.svc == nil || r.svc.Close == nil {
		return nil
	}
	err := r.svc.Close()
	r.svc = nil
	return err
}
