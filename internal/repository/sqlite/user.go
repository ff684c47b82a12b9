package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/spacetime/internal/apperror"
	"github.com/sakif/spacetime/internal/model"
	"github.com/sakif/spacetime/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user row. The ID (xid) and CreatedAt are assigned
// here and written back into the caller's struct.
//
// If a row with the same github_id already exists, the UNIQUE constraint
// fires and we return apperror.ErrConflict. We deliberately do NOT
// upsert: the auth flow's contract is find-then-create, and the conflict
// is its signal that a concurrent registration won the race.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, name, login, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GitHubID,
		user.Name,
		user.Login,
		user.AvatarURL,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "github_id "+strconv.FormatInt(user.GitHubID, 10))
		}
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetByGitHubID retrieves a user by the provider's numeric ID — the
// lookup half of the find-or-create in the auth flow.
func (db *DB) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx, `WHERE github_id = ?`, githubID)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, name, login, avatar_url, created_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.Name,
		&u.Login,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	return &u, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite surfaces constraint errors with the canonical
// SQLite message text, so matching on it is the stable check available
// without importing the driver's internal error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
