package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/betania/sportsync/internal/cache"
	"github.com/jmoiron/sqlx"
)

// CacheRepository persists cache entries so snapshots survive restarts.
type CacheRepository struct {
	db *sqlx.DB
}

func NewCacheRepository(db *sqlx.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

type cacheEntryRow struct {
	CacheKey  string    `db:"cache_key"`
	Payload   []byte    `db:"payload"`
	TTLMillis int64     `db:"ttl_ms"`
	Priority  int16     `db:"priority"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (r *CacheRepository) SaveEntry(ctx context.Context, entry cache.Entry) error {
	expiresAt := entry.Timestamp.Add(entry.TTL)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO api_cache_entries (cache_key, payload, ttl_ms, priority, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (cache_key)
DO UPDATE SET
    payload = EXCLUDED.payload,
    ttl_ms = EXCLUDED.ttl_ms,
    priority = EXCLUDED.priority,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at`,
		entry.Key, entry.Data, entry.TTL.Milliseconds(), int16(entry.Priority), entry.Timestamp.UTC(), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert cache entry key=%s: %w", entry.Key, err)
	}
	return nil
}

func (r *CacheRepository) Remove(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_cache_entries WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("delete cache entry key=%s: %w", key, err)
	}
	return nil
}

// LoadAll returns every persisted entry, dropping rows that expired
// while the process was down in the same round trip.
func (r *CacheRepository) LoadAll(ctx context.Context) ([]cache.Entry, error) {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_cache_entries WHERE expires_at <= NOW()`); err != nil {
		return nil, fmt.Errorf("purge expired cache entries: %w", err)
	}

	var rows []cacheEntryRow
	if err := r.db.SelectContext(ctx, &rows, `
SELECT cache_key, payload, ttl_ms, priority, created_at, expires_at
FROM api_cache_entries
ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("select cache entries: %w", err)
	}

	entries := make([]cache.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, cache.Entry{
			Key:       row.CacheKey,
			Data:      row.Payload,
			Timestamp: row.CreatedAt,
			TTL:       time.Duration(row.TTLMillis) * time.Millisecond,
			Priority:  cache.Priority(row.Priority),
		})
	}
	return entries, nil
}

func (r *CacheRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_cache_entries`); err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}
	return nil
}
