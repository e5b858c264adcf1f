package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// OffsetStore is the persisted polling offset of one bot. It satisfies
// polling.OffsetStore.
type OffsetStore struct {
	store *SQLiteStore
	botID string
}

// Offsets returns the offset store for botID.
func (s *SQLiteStore) Offsets(botID string) *OffsetStore {
	return &OffsetStore{store: s, botID: botID}
}

// LoadOffset returns the stored offset, or 0 when none was saved yet.
func (o *OffsetStore) LoadOffset(ctx context.Context) (int64, error) {
	start := time.Now()
	var offset int64
	err := o.store.db.QueryRowContext(ctx,
		"SELECT next_update_id FROM offsets WHERE bot_id = ?", o.botID,
	).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	RecordOperation("load_offset", time.Since(start), err)

	if err != nil {
		return 0, fmt.Errorf("failed to load offset for bot %s: %w", o.botID, err)
	}
	return offset, nil
}

// SaveOffset stores offset. A stored value is never lowered.
func (o *OffsetStore) SaveOffset(ctx context.Context, offset int64) error {
	start := time.Now()
	_, err := o.store.db.ExecContext(ctx, `
		INSERT INTO offsets (bot_id, next_update_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(bot_id) DO UPDATE SET
			next_update_id = MAX(next_update_id, excluded.next_update_id),
			updated_at = CURRENT_TIMESTAMP
	`, o.botID, offset)
	RecordOperation("save_offset", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to save offset for bot %s: %w", o.botID, err)
	}
	return nil
}
