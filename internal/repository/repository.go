// Package repository defines the persistence interfaces the service
// layer programs against. The sqlite subpackage is the production
// implementation; tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/spacetime/internal/model"
)

// UserRepository maps external identities to local user records.
//
// Users are find-or-create only: no update, no delete. Create must fail
// with apperror.ErrConflict when a row for the same GitHub ID already
// exists (UNIQUE constraint) — the auth flow recovers from that by
// re-reading, which is how concurrent first registrations for the same
// identity collapse to a single row.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// MemoryRepository is plain CRUD over memory records. List returns every
// record ordered by creation time ascending — visibility filtering is
// the service layer's job, not the store's. Update and Delete report
// apperror.ErrNotFound when no row matches the id.
type MemoryRepository interface {
	Create(ctx context.Context, memory *model.Memory) error
	GetByID(ctx context.Context, id string) (*model.Memory, error)
	List(ctx context.Context) ([]model.Memory, error)
	Update(ctx context.Context, memory *model.Memory) error
	Delete(ctx context.Context, id string) error
}
