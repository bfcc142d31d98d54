package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"telefetch/internal/media"
)

// Preference returns the stored quality tier for a user. Users without a
// stored row get the default tier; no row is created until they choose one.
func (s *Store) Preference(ctx context.Context, userID int64) (media.Tier, error) {
	row := s.db.QueryRowContext(ctx, `SELECT tier FROM preferences WHERE user_id = ?`, userID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return media.DefaultTier, nil
		}
		return media.DefaultTier, fmt.Errorf("read preference: %w", err)
	}
	tier, ok := media.ParseTier(raw)
	if !ok {
		// Unknown value left behind by an older build; fall back silently.
		return media.DefaultTier, nil
	}
	return tier, nil
}

// SetPreference stores a user's quality tier. Last write wins.
func (s *Store) SetPreference(ctx context.Context, userID int64, tier media.Tier) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO preferences (user_id, tier, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(user_id) DO UPDATE SET tier = excluded.tier, updated_at = excluded.updated_at`,
		userID,
		string(tier),
		now,
	)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

// PreferenceCount reports how many users have stored an explicit preference.
func (s *Store) PreferenceCount(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM preferences`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count preferences: %w", err)
	}
	return count, nil
}
