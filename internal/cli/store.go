package cli

import (
	"context"
	"fmt"
	"log/slog"

	"mentorship/internal/adapter/gormstore"
	"mentorship/internal/adapter/memory"
	"mentorship/internal/adapter/postgres"
	"mentorship/internal/app"
	"mentorship/internal/config"
	"mentorship/internal/domain"
)

// Services is what the commands drive.
type Services struct {
	Participants domain.ParticipantDirectory
	Scheduling   *app.SchedulingService
	Availability *app.AvailabilityService
	Seeder       *app.Seeder
	Close        func() error
}

// Opener builds the services for a configuration.
type Opener func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Services, error)

type participantStore interface {
	domain.ParticipantDirectory
	domain.ParticipantRegistry
}

// OpenStore connects the configured store driver and wires the services
// over it.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Services, error) {
	var (
		participants participantStore
		sessions     domain.SessionStore
		closeFn      func() error
	)

	switch cfg.StoreDriver {
	case config.StoreMemory:
		db := memory.New()
		participants, sessions = db, db.NewSessionRepo()
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		participants, sessions, closeFn = db, postgres.NewSessionRepo(db), db.Close
	case config.StoreSQLite, config.StoreGormPostgres:
		dialect := gormstore.DialectSQLite
		if cfg.StoreDriver == config.StoreGormPostgres {
			dialect = gormstore.DialectPostgres
		}
		db, err := gormstore.Open(dialect, cfg.DatabaseURL, logger.Enabled(ctx, slog.LevelDebug))
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		participants, sessions, closeFn = db, db.NewSessionRepo(), db.Close
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	logger.DebugContext(ctx, "store opened", "driver", cfg.StoreDriver)
	return NewServices(participants, participants, sessions, domain.SystemClock{}, logger, closeFn), nil
}

// NewServices wires the application services over the given ports.
func NewServices(dir domain.ParticipantDirectory, reg domain.ParticipantRegistry, sessions domain.SessionStore, clock domain.Clock, logger *slog.Logger, closeFn func() error) *Services {
	return &Services{
		Participants: dir,
		Scheduling:   app.NewSchedulingService(dir, sessions, clock, app.WithLogger(logger)),
		Availability: app.NewAvailabilityService(dir, sessions, app.WithLogger(logger)),
		Seeder:       app.NewSeeder(reg),
		Close:        closeFn,
	}
}
