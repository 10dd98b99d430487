// Package pgstore keeps sessions and customer identities in PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/shop/storage"
)

// Migrations holds the schema, applied through core/database.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

const (
	selectSession = `SELECT state, resume_product_id, view_message_id FROM chat_sessions WHERE chat_id = $1`
	upsertSession = `INSERT INTO chat_sessions (chat_id, state, resume_product_id, view_message_id, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (chat_id) DO UPDATE SET state = EXCLUDED.state, resume_product_id = EXCLUDED.resume_product_id,
view_message_id = EXCLUDED.view_message_id, updated_at = now()`
	upsertState = `INSERT INTO chat_sessions (chat_id, state, updated_at) VALUES ($1, $2, now())
ON CONFLICT (chat_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`
	selectCustomer = `SELECT customer_id FROM customer_identities WHERE user_id = $1`
	insertCustomer = `INSERT INTO customer_identities (user_id, customer_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
)

type sessionRow struct {
	State           string `db:"state"`
	ResumeProductID string `db:"resume_product_id"`
	ViewMessageID   int    `db:"view_message_id"`
}

// Store implements storage.Store on sqlx.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database handle. Close closes it.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetState(ctx context.Context, chatID int64) (storage.State, bool, error) {
	sess, found, err := s.GetSession(ctx, chatID)
	return sess.State, found, err
}

func (s *Store) SetState(ctx context.Context, chatID int64, state storage.State) error {
	if err := storage.ValidateSession(storage.Session{State: state}); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertState, chatID, string(state)); err != nil {
		return fmt.Errorf("pg set state: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, chatID int64) (storage.Session, bool, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, selectSession, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Session{}, false, nil
	}
	if err != nil {
		return storage.Session{}, false, fmt.Errorf("pg get session: %w", err)
	}
	state, ok := storage.ParseState(row.State)
	if !ok {
		logger.Warn(ctx, logger.CompStore, "store.state.invalid",
			slog.String("driver", "postgres"),
			slog.Int64("chat_id", chatID),
			slog.String("state", logger.SanitizeLimit(row.State, 64)),
		)
		return storage.Session{}, false, nil
	}
	return storage.Session{
		State:           state,
		ResumeProductID: row.ResumeProductID,
		ViewMessageID:   row.ViewMessageID,
	}, true, nil
}

func (s *Store) SetSession(ctx context.Context, chatID int64, sess storage.Session) error {
	if err := storage.ValidateSession(sess); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, upsertSession, chatID, string(sess.State), sess.ResumeProductID, sess.ViewMessageID)
	if err != nil {
		return fmt.Errorf("pg set session: %w", err)
	}
	return nil
}

func (s *Store) GetCustomerID(ctx context.Context, userID int64) (string, bool, error) {
	var id string
	err := s.db.GetContext(ctx, &id, selectCustomer, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pg get customer: %w", err)
	}
	return id, true, nil
}

func (s *Store) SetCustomerID(ctx context.Context, userID int64, customerID string) error {
	res, err := s.db.ExecContext(ctx, insertCustomer, userID, customerID)
	if err != nil {
		return fmt.Errorf("pg set customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Debug(ctx, logger.CompStore, "store.customer.exists", slog.String("driver", "postgres"))
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

var _ storage.Store = (*Store)(nil)
