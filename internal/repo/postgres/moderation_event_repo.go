package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModerationEventRepo is the append-only audit trail of gateway actions.
type ModerationEventRepo struct {
	pool *pgxpool.Pool
}

func NewModerationEventRepo(pool *pgxpool.Pool) *ModerationEventRepo {
	return &ModerationEventRepo{pool: pool}
}

func (r *ModerationEventRepo) Record(ctx context.Context, adID, actorID int64, action string, meta map[string]any) error {
	if adID <= 0 {
		return fmt.Errorf("invalid advertisement id")
	}
	if actorID <= 0 {
		return fmt.Errorf("invalid actor id")
	}
	if strings.TrimSpace(action) == "" {
		return fmt.Errorf("action is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	payload := "{}"
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal moderation event meta: %w", err)
		}
		payload = string(raw)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO moderation_events (
	ad_id,
	actor_id,
	action,
	meta,
	created_at
) VALUES (
	$1,
	$2,
	$3,
	$4::jsonb,
	NOW()
)
`, adID, actorID, strings.ToLower(strings.TrimSpace(action)), payload); err != nil {
		return fmt.Errorf("insert moderation event: %w", err)
	}
	return nil
}
