package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SearchCacheRepo stores chosen columns keyed by position so they survive restarts.
type SearchCacheRepo struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSearchCacheRepo(db *sql.DB, ttl time.Duration) *SearchCacheRepo {
	return &SearchCacheRepo{DB: db, TTL: ttl}
}

// Get returns the stored column and counts the hit.
func (r *SearchCacheRepo) Get(ctx context.Context, key string) (int, bool, error) {
	query := `
	UPDATE search_cache
	SET hits = hits + 1
	WHERE position_key = $1 AND expires_at > NOW()
	RETURNING best_column;
	`
	var column int
	err := r.DB.QueryRowContext(ctx, query, key).Scan(&column)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read search cache: %w", err)
	}
	return column, true, nil
}

func (r *SearchCacheRepo) Set(ctx context.Context, key string, column int) error {
	query := `
	INSERT INTO search_cache (position_key, best_column, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (position_key)
	DO UPDATE SET best_column = EXCLUDED.best_column, expires_at = EXCLUDED.expires_at;
	`
	if _, err := r.DB.ExecContext(ctx, query, key, column, time.Now().Add(r.TTL)); err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

// DeleteExpired removes entries past their expiry and returns how many went.
func (r *SearchCacheRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM search_cache WHERE expires_at <= NOW();`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup search cache: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
