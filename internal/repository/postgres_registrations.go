package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"seminar-bot/internal/domain"
)

const (
	createRegistrationsTable = `
CREATE TABLE IF NOT EXISTS tg_user (
	id           TEXT PRIMARY KEY,
	tg_id        BIGINT NOT NULL UNIQUE,
	username     TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL,
	organization TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	date         TEXT NOT NULL,
	hotel_info   BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
)`

	registrationExistsQuery = `SELECT EXISTS (SELECT 1 FROM tg_user WHERE tg_id = $1)`

	insertRegistrationQuery = `
INSERT INTO tg_user (id, tg_id, username, name, organization, phone_number, date, hotel_info, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (tg_id) DO NOTHING`
)

// pgxAPI is the subset of *pgxpool.Pool used by PostgresRegistrations.
type pgxAPI interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRegistrations keeps completed registrations in the tg_user table.
type PostgresRegistrations struct {
	db pgxAPI
}

func NewPostgresRegistrations(db pgxAPI) (*PostgresRegistrations, error) {
	if db == nil {
		return nil, errors.New("repository: postgres pool must not be nil")
	}
	return &PostgresRegistrations{db: db}, nil
}

// EnsureSchema creates the tg_user table when it does not exist.
func (p *PostgresRegistrations) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createRegistrationsTable); err != nil {
		return fmt.Errorf("repository: EnsureSchema: %w", err)
	}
	return nil
}

func (p *PostgresRegistrations) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, registrationExistsQuery, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("repository: Exists: %w", err)
	}
	return exists, nil
}

// Insert stores rec. A second registration of the same user inserts nothing and
// returns domain.ErrDuplicateRegistration.
func (p *PostgresRegistrations) Insert(ctx context.Context, rec domain.RegistrationRecord) error {
	if rec.UserID == 0 {
		return errors.New("repository: Insert: user id is required")
	}
	tag, err := p.db.Exec(ctx, insertRegistrationQuery,
		rec.ID,
		rec.UserID,
		rec.Username,
		rec.DisplayName,
		rec.Organization,
		rec.PhoneNumber,
		rec.EventDate,
		rec.WantsHotel,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("repository: Insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: Insert: %w", domain.ErrDuplicateRegistration)
	}
	return nil
}
