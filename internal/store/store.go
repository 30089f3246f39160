// Package store is the durable sink for synced activities: idempotent
// insert-or-skip of activities, bulk insert of their splits, and the
// persisted sync cursor.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jbaldivieso/coach/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cursorKey is the sync_states key holding the last-sync watermark.
const cursorKey = "last_sync_time"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertActivity inserts the activity unless one with the same StravaID
// already exists. The existing row is never modified, so re-running a page
// is a no-op and a remote edit never reaches the local copy.
func (s *Store) UpsertActivity(a *model.Activity) (id uint, inserted bool, err error) {
	var existing model.Activity
	err = s.db.Where("strava_id = ?", a.StravaID).First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("looking up activity %d: %w", a.StravaID, err)
	}

	if err := s.db.Create(a).Error; err != nil {
		return 0, false, fmt.Errorf("inserting activity %d: %w", a.StravaID, err)
	}
	return a.ID, true, nil
}

// InsertSplits bulk-inserts splits for the given activity. Splits have no
// natural key, so callers must only invoke this once per newly inserted
// parent; the orchestrator gates it on UpsertActivity reporting an insert.
func (s *Store) InsertSplits(activityID uint, splits []model.ActivitySplit) (int, error) {
	if len(splits) == 0 {
		return 0, nil
	}

	for i := range splits {
		splits[i].ActivityID = activityID
	}
	if err := s.db.Create(&splits).Error; err != nil {
		return 0, fmt.Errorf("inserting %d splits for activity %d: %w", len(splits), activityID, err)
	}
	return len(splits), nil
}

// Cursor returns the stored last-sync instant. ok is false on the first
// ever run, before any cursor has been written.
func (s *Store) Cursor() (t time.Time, ok bool, err error) {
	var state model.SyncState
	err = s.db.First(&state, "key = ?", cursorKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading sync cursor: %w", err)
	}

	secs, err := strconv.ParseInt(state.Value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing sync cursor %q: %w", state.Value, err)
	}
	return time.Unix(secs, 0).UTC(), true, nil
}

// SetCursor stores the last-sync instant, replacing any previous value.
func (s *Store) SetCursor(t time.Time) error {
	state := model.SyncState{
		Key:       cursorKey,
		Value:     strconv.FormatInt(t.Unix(), 10),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("writing sync cursor: %w", err)
	}
	return nil
}
