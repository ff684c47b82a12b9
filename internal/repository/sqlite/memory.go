package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/model"
	"github.com/sakif/spacetime/internal/repository"
)

// Compile-time check that *DB implements repository.MemoryRepository.
var _ repository.MemoryRepository = (*DB)(nil)

// Create inserts a new memory. ID and timestamps are assigned here and
// written back into the caller's struct; OwnerID must already be set by
// the service layer (it comes from the verified token subject).
func (db *DB) Create(ctx context.Context, memory *model.Memory) error {
	memory.ID = xid.New().String()
	now := time.Now()
	memory.CreatedAt = now
	memory.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO memories (id, content, cover_url, is_public, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		memory.ID,
		memory.Content,
		memory.CoverURL,
		memory.IsPublic,
		memory.OwnerID,
		memory.CreatedAt,
		memory.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating memory: %w", err)
	}

	return nil
}

// GetByID retrieves a single memory.
// Returns apperror.ErrNotFound if no row matches.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	var m model.Memory

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, content, cover_url, is_public, owner_id, created_at, updated_at
		 FROM memories
		 WHERE id = ?`,
		id,
	).Scan(
		&m.ID,
		&m.Content,
		&m.CoverURL,
		&m.IsPublic,
		&m.OwnerID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("memory", id)
		}
		return nil, fmt.Errorf("sqlite: getting memory %s: %w", id, err)
	}

	return &m, nil
}

// List returns all memories ordered by creation time ascending — a
// timeline reads oldest first. The store does no visibility filtering;
// the service applies the read rule per caller.
func (db *DB) List(ctx context.Context) ([]model.Memory, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, content, cover_url, is_public, owner_id, created_at, updated_at
		 FROM memories
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing memories: %w", err)
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		var m model.Memory
		if err := rows.Scan(
			&m.ID, &m.Content, &m.CoverURL, &m.IsPublic,
			&m.OwnerID, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning memory row: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating memories: %w", err)
	}

	return memories, nil
}

// Update writes content, cover URL, visibility, and the refreshed
// updated_at. ID, owner_id, and created_at are immutable — they are not
// in the SET list at all, so ownership can't transfer by accident.
//
// RowsAffected == 0 means the WHERE matched nothing → not found.
func (db *DB) Update(ctx context.Context, memory *model.Memory) error {
	memory.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE memories
		 SET content = ?, cover_url = ?, is_public = ?, updated_at = ?
		 WHERE id = ?`,
		memory.Content,
		memory.CoverURL,
		memory.IsPublic,
		memory.UpdatedAt,
		memory.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating memory %s: %w", memory.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("memory", memory.ID)
	}

	return nil
}

// Delete removes a memory by ID, with the same RowsAffected check.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting memory %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("memory", id)
	}

	return nil
}
