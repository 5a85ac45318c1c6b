package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/eventdesk/internal/models"
)

// Snapshots remembers the last list fetched successfully per session, so
// a failed refresh can keep showing it.
type Snapshots struct {
	db *gorm.DB
}

func NewSnapshots(db *gorm.DB) *Snapshots { return &Snapshots{db: db} }

func (s *Snapshots) Save(ctx context.Context, sessionID, key string, payload []byte) error {
	snap := models.Snapshot{SessionID: sessionID, ListKey: key, Payload: payload}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "list_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored payload, or ok=false when nothing was saved.
func (s *Snapshots) Load(ctx context.Context, sessionID, key string) (payload []byte, ok bool, err error) {
	var snap models.Snapshot
	err = s.db.WithContext(ctx).Where("session_id = ? AND list_key = ?", sessionID, key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snap.Payload, true, nil
}

// Purge drops everything kept for sessionID: snapshots and drafts.
func (s *Snapshots) Purge(ctx context.Context, sessionID string) error {
	_, err := s.purgeWhere(ctx, "session_id = ?", sessionID)
	return err
}

// PurgeOrphans drops the snapshots and drafts of sessions that are no
// longer in the sessions table. It only applies to database sessions.
func (s *Snapshots) PurgeOrphans(ctx context.Context) (int64, error) {
	live := s.db.Model(&models.Session{}).Select("id")
	return s.purgeWhere(ctx, "session_id NOT IN (?)", live)
}

// PurgeIdle drops snapshots and drafts untouched since cutoff. With cutoff
// one session lifetime ago, no live session can own what it removes.
func (s *Snapshots) PurgeIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.purgeWhere(ctx, "updated_at < ?", cutoff)
}

func (s *Snapshots) purgeWhere(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(query, args...).Delete(&models.Snapshot{})
		if res.Error != nil {
			return fmt.Errorf("purge snapshots: %w", res.Error)
		}
		n += res.RowsAffected
		res = tx.Where(query, args...).Delete(&models.Draft{})
		if res.Error != nil {
			return fmt.Errorf("purge drafts: %w", res.Error)
		}
		n += res.RowsAffected
		return nil
	})
	return n, err
}
