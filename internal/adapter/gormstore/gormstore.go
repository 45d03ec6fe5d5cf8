// Package gormstore implements the domain repositories on GORM, backed by
// SQLite for local use or PostgreSQL.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"mentorship/internal/domain"
)

// Supported dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DB wraps a *gorm.DB and implements domain repository interfaces.
type DB struct {
	gorm    *gorm.DB
	dialect string
}

var _ domain.ParticipantDirectory = (*DB)(nil)
var _ domain.ParticipantRegistry = (*DB)(nil)

// Open connects using the given dialect and migrates the schema. When debug
// is set every statement is logged.
func Open(dialect, dsn string, debug bool) (*DB, error) {
	var d gorm.Dialector
	switch dialect {
	case DialectSQLite:
		d = sqlite.Open(dsn)
	case DialectPostgres:
		d = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	level := logger.Silent
	if debug {
		level = logger.Info
	}
	g, err := gorm.Open(d, &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		// One connection: transactions serialize and :memory: stays shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := g.AutoMigrate(&participantRow{}, &reviewRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &DB{gorm: g, dialect: dialect}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindByID retrieves a participant by ID.
func (db *DB) FindByID(ctx context.Context, id int64) (*domain.Participant, error) {
	var row participantRow
	err := db.gorm.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	return &p, nil
}

// ListByRole lists participants with the given role ordered by ID.
func (db *DB) ListByRole(ctx context.Context, role domain.Role) ([]domain.Participant, error) {
	var rows []participantRow
	if err := db.gorm.WithContext(ctx).Where("role = ?", string(role)).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Participant, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// AddParticipant inserts p, or returns the existing row with the same email.
func (db *DB) AddParticipant(ctx context.Context, p domain.Participant) (*domain.Participant, error) {
	row := participantRow{Name: p.Name, Email: p.Email, Role: string(p.Role), CreatedAt: p.CreatedAt.UTC()}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	g := db.gorm.WithContext(ctx)
	res := g.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		row = participantRow{}
		if err := g.Where("email = ?", p.Email).First(&row).Error; err != nil {
			return nil, err
		}
	}
	out := row.toDomain()
	return &out, nil
}
