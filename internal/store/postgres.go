package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
)

// Postgres persists sessions in a single table with the full record as JSONB.
// The completed and lp_earned columns mirror the record for querying; the
// JSONB state stays the source of truth inside a row.
//
//	CREATE TABLE sessions (
//	    session_id TEXT PRIMARY KEY,
//	    completed  BOOLEAN NOT NULL DEFAULT FALSE,
//	    lp_earned  BIGINT,
//	    state      JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, id string) (*domain.Session, error) {
	const stmt = `SELECT state FROM sessions WHERE session_id = $1;`

	var raw []byte
	err := p.db.QueryRow(ctx, stmt, id).Scan(&raw)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	return decode(raw)
}

func (p *Postgres) Create(ctx context.Context, s *domain.Session) error {
	const stmt = `
INSERT INTO sessions (session_id, completed, lp_earned, state, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = p.db.Exec(ctx, stmt, s.ID, s.Completed, s.LPEarned, raw, s.CreatedAt, s.ExpiresAt)

	var pgErr *pgconn.PgError
	const codeUniqueViolation = "23505"
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("session already exists: %s", s.ID),
			errors.WithCause(err))
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (p *Postgres) Mutate(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	var out *domain.Session
	err := p.withRow(ctx, id, func(s *domain.Session) (bool, error) {
		if err := fn(s); err != nil {
			return false, err
		}
		out = s
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) Finalize(ctx context.Context, id string, lp int64) (*domain.Session, bool, error) {
	var (
		out *domain.Session
		won bool
	)
	err := p.withRow(ctx, id, func(s *domain.Session) (bool, error) {
		if s.Completed {
			out = s
			return false, nil
		}
		s.Completed = true
		s.LPEarned = &lp
		out, won = s, true
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, won, nil
}

// withRow runs fn against the locked row; fn reports whether the row should
// be written back.
func (p *Postgres) withRow(ctx context.Context, id string, fn func(*domain.Session) (bool, error)) (err error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		selStmt = `SELECT state FROM sessions WHERE session_id = $1 FOR UPDATE;`
		updStmt = `UPDATE sessions SET completed = $2, lp_earned = $3, state = $4 WHERE session_id = $1;`
	)

	var raw []byte
	err = tx.QueryRow(ctx, selStmt, id).Scan(&raw)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return notFound(id)
	}
	if err != nil {
		return fmt.Errorf("select session for update: %w", err)
	}

	s, err := decode(raw)
	if err != nil {
		return err
	}

	write, err := fn(s)
	if err != nil {
		return err
	}
	if !write {
		return tx.Commit(ctx)
	}

	raw, err = json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if _, err = tx.Exec(ctx, updStmt, id, s.Completed, s.LPEarned, raw); err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	return tx.Commit(ctx)
}

func decode(raw []byte) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
