package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RetentionPolicy bounds how much call history is kept.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// Prune deletes calls outside the retention policy. Attempts and events
// cascade. A zero policy keeps everything.
func (s *Store) Prune(ctx context.Context, policy RetentionPolicy) (int, error) {
	deleted := 0

	if policy.KeepDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -policy.KeepDays).Format(time.RFC3339)
		res, err := s.db.ExecContext(ctx, `DELETE FROM calls WHERE created_at < ?`, cutoff)
		if err != nil {
			return deleted, fmt.Errorf("prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}

	if policy.KeepLast > 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM calls WHERE call_id NOT IN (
			SELECT call_id FROM calls ORDER BY created_at DESC, call_id DESC LIMIT ?)`,
			policy.KeepLast)
		if err != nil {
			return deleted, fmt.Errorf("prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}

	if deleted > 0 {
		log.Info().Int("calls", deleted).Msg("pruned call history")
	}
	return deleted, nil
}
