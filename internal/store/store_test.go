package store

import (
	"testing"
	"time"

	"github.com/jbaldivieso/coach/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&model.Activity{}, &model.ActivitySplit{}, &model.SyncState{}); err != nil {
		t.Fatal(err)
	}
	return New(db)
}

func run(stravaID int64) *model.Activity {
	return &model.Activity{
		StravaID:       stravaID,
		Name:           "Morning Run",
		StartDateLocal: time.Date(2025, 3, 2, 7, 2, 13, 0, time.UTC),
		SportType:      "Run",
		Distance:       8046.7,
		MovingTime:     2820,
		ElapsedTime:    2903,
	}
}

func TestUpsertActivity(t *testing.T) {
	s := testStore(t)

	id, inserted, err := s.UpsertActivity(run(1001))
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}
	if !inserted || id == 0 {
		t.Fatalf("expected insert with non-zero id, got id=%d inserted=%v", id, inserted)
	}

	// A second upsert of the same remote record is a no-op returning the
	// original id, even when the payload differs.
	changed := run(1001)
	changed.Name = "Renamed After The Fact"
	id2, inserted2, err := s.UpsertActivity(changed)
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}
	if inserted2 {
		t.Error("expected skip on duplicate strava_id")
	}
	if id2 != id {
		t.Errorf("expected existing id %d, got %d", id, id2)
	}

	var stored model.Activity
	if err := s.db.First(&stored, id).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Name != "Morning Run" {
		t.Errorf("first write wins: expected original name, got %q", stored.Name)
	}

	var count int64
	s.db.Model(&model.Activity{}).Where("strava_id = ?", 1001).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one row for strava_id 1001, got %d", count)
	}
}

func TestInsertSplits(t *testing.T) {
	s := testStore(t)

	id, _, err := s.UpsertActivity(run(1002))
	if err != nil {
		t.Fatal(err)
	}

	elev := 4.2
	splits := []model.ActivitySplit{
		{SplitNumber: 1, SplitType: "metric", Distance: 1000.2, ElapsedTime: 352, MovingTime: 348, AverageSpeed: 2.87, ElevationDifference: &elev},
		{SplitNumber: 2, SplitType: "metric", Distance: 999.8, ElapsedTime: 347, MovingTime: 345, AverageSpeed: 2.9},
	}

	n, err := s.InsertSplits(id, splits)
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}
	if n != 2 {
		t.Errorf("expected 2 splits inserted, got %d", n)
	}

	var stored []model.ActivitySplit
	if err := s.db.Where("activity_id = ?", id).Order("split_number").Find(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 || stored[0].SplitNumber != 1 || stored[1].SplitNumber != 2 {
		t.Errorf("unexpected stored splits: %+v", stored)
	}
}

func TestInsertSplitsEmpty(t *testing.T) {
	s := testStore(t)

	n, err := s.InsertSplits(1, nil)
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}
	if n != 0 {
		t.Errorf("expected 0 splits inserted, got %d", n)
	}
}

func TestCursor(t *testing.T) {
	s := testStore(t)

	_, ok, err := s.Cursor()
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}
	if ok {
		t.Fatal("expected no cursor before the first run")
	}

	first := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	if err := s.SetCursor(first); err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}

	got, ok, err := s.Cursor()
	if err != nil || !ok {
		t.Fatalf("expected stored cursor, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(first) {
		t.Errorf("expected cursor %v, got %v", first, got)
	}

	// A later run overwrites the single cursor row.
	second := first.Add(24 * time.Hour)
	if err := s.SetCursor(second); err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}

	got, _, _ = s.Cursor()
	if !got.Equal(second) {
		t.Errorf("expected cursor %v, got %v", second, got)
	}

	var count int64
	s.db.Model(&model.SyncState{}).Count(&count)
	if count != 1 {
		t.Errorf("expected a single sync state row, got %d", count)
	}
}

func TestStats(t *testing.T) {
	s := testStore(t)

	a := run(1003)
	if id, _, err := s.UpsertActivity(a); err != nil {
		t.Fatal(err)
	} else if _, err := s.InsertSplits(id, []model.ActivitySplit{{SplitNumber: 1, SplitType: "metric", Distance: 1000}}); err != nil {
		t.Fatal(err)
	}

	ride := run(1004)
	ride.SportType = "Ride"
	ride.Distance = 32186.9
	if _, _, err := s.UpsertActivity(ride); err != nil {
		t.Fatal(err)
	}

	if err := s.SetCursor(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("expected nil error, got %q", err)
	}
	if stats.TotalActivities != 2 {
		t.Errorf("expected 2 activities, got %d", stats.TotalActivities)
	}
	if stats.TotalSplits != 1 {
		t.Errorf("expected 1 split, got %d", stats.TotalSplits)
	}
	if stats.LastSync == nil {
		t.Error("expected last sync time")
	}
	if len(stats.BySport) != 2 {
		t.Errorf("expected 2 sport types, got %+v", stats.BySport)
	}
	if len(stats.Recent) != 2 {
		t.Errorf("expected 2 recent activities, got %d", len(stats.Recent))
	}
}
