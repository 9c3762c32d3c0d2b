package relay

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const pausedUsersSchema = `
	CREATE TABLE IF NOT EXISTS paused_users (
		user_id   TEXT PRIMARY KEY,
		paused_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// pauseRepo is the Postgres-backed PauseRegistry. Only positive answers are cached:
// a paused user stays paused, while a not-yet-paused user may be paused by another replica.
type pauseRepo struct {
	db     *sql.DB
	paused *lru.Cache[string, struct{}]
}

func NewPauseRepo(db *sql.DB, cacheSize int) (PauseRegistry, error) {
	cache, err := lru.New[string, struct{}](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("pause cache: %w", err)
	}
	return &pauseRepo{db: db, paused: cache}, nil
}

// EnsurePauseSchema creates the paused_users table when it is missing.
func EnsurePauseSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, pausedUsersSchema)
	return err
}

func (r *pauseRepo) IsPaused(ctx context.Context, userID string) (bool, error) {
	if r.paused.Contains(userID) {
		return true, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM paused_users WHERE user_id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check paused user: %w", err)
	}

	if exists {
		r.paused.Add(userID, struct{}{})
	}
	return exists, nil
}

func (r *pauseRepo) Pause(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO paused_users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return false, fmt.Errorf("pause user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pause user: %w", err)
	}

	r.paused.Add(userID, struct{}{})
	return n == 1, nil
}
