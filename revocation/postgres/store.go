// Package postgres stores refresh token revocations in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/MrEthical07/authchain/revocation"
)

// pool is the subset of *pgxpool.Pool used here; pgxmock satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements revocation.Store on the revoked_tokens table.
type Store struct {
	pool pool
}

var _ revocation.Store = (*Store)(nil)

// NewStore wraps a connection pool. Run Migrate first.
func NewStore(p pool) *Store {
	return &Store{pool: p}
}

const insertRevoked = `INSERT INTO revoked_tokens (digest) VALUES ($1) ON CONFLICT (digest) DO NOTHING`

func (s *Store) Revoke(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, insertRevoked, revocation.Digest(token)); err != nil {
		return unavailable("revoke", err)
	}
	return nil
}

const selectRevoked = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE digest = $1)`

func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, selectRevoked, revocation.Digest(token)).Scan(&exists); err != nil {
		return false, unavailable("is_revoked", err)
	}
	return exists, nil
}

func unavailable(op string, err error) error {
	return oops.
		In("revocation").
		Code("REVOCATION_STORE_UNAVAILABLE").
		With("op", op, "backend", "postgres").
		Wrap(fmt.Errorf("%w: %v", revocation.ErrUnavailable, err))
}
