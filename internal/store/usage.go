package store

import (
	"context"
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// UsageRow is one user's delivery counters for a single UTC day.
type UsageRow struct {
	Day       string
	UserID    int64
	Downloads int64
	Bytes     int64
}

// AddUsage increments the delivery counters for a user on the current UTC
// day. Called by the delivery stage after a successful upload only.
func (s *Store) AddUsage(ctx context.Context, userID int64, bytes int64) error {
	day := time.Now().UTC().Format(dayFormat)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO usage_daily (day, user_id, downloads, bytes) VALUES (?, ?, 1, ?)
         ON CONFLICT(day, user_id) DO UPDATE SET
             downloads = downloads + 1,
             bytes = bytes + excluded.bytes`,
		day,
		userID,
		bytes,
	)
	if err != nil {
		return fmt.Errorf("add usage: %w", err)
	}
	return nil
}

// UsageSummary returns per-user daily counters for days at or after since,
// ordered by day then user.
func (s *Store) UsageSummary(ctx context.Context, since time.Time) ([]UsageRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT day, user_id, downloads, bytes FROM usage_daily WHERE day >= ? ORDER BY day, user_id`,
		since.UTC().Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var summary []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.Day, &row.UserID, &row.Downloads, &row.Bytes); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// UsageTotals aggregates counters across all users for days at or after since.
func (s *Store) UsageTotals(ctx context.Context, since time.Time) (downloads, bytes int64, err error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(downloads), 0), COALESCE(SUM(bytes), 0) FROM usage_daily WHERE day >= ?`,
		since.UTC().Format(dayFormat),
	)
	if err := row.Scan(&downloads, &bytes); err != nil {
		return 0, 0, fmt.Errorf("sum usage: %w", err)
	}
	return downloads, bytes, nil
}
