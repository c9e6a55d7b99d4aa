// Package store holds session records. The store is the sole arbiter of
// "both answered" and completion: clients submit single atomic mutations and
// re-fetch to observe the authoritative result.
package store

import (
	"context"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
)

type Store interface {
	// Get returns a copy of the session, or CodeNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Create inserts a new session. CodeAlreadyExists on duplicate ID.
	Create(ctx context.Context, s *domain.Session) error

	// Mutate applies fn to the session under the store's write lock and
	// persists the result. An error from fn aborts the write and is returned
	// as-is. Returns the session as persisted.
	Mutate(ctx context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error)

	// Finalize stamps Completed and LPEarned in one write, guarded on
	// Completed still being false. The boolean reports whether this call won
	// the stamp; losing is not an error, the already-final session is
	// returned either way.
	Finalize(ctx context.Context, id string, lp int64) (*domain.Session, bool, error)
}

func notFound(id string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: %s", id))
}
