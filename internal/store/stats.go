package store

import (
	"fmt"
	"time"

	"github.com/jbaldivieso/coach/internal/model"
)

// SportStat aggregates the stored activities of one sport type.
type SportStat struct {
	SportType          string
	Count              int64
	TotalKm            float64
	TotalElevationGain float64
}

// Stats is a snapshot of the training database for the stats command.
type Stats struct {
	LastSync        *time.Time
	TotalActivities int64
	TotalSplits     int64
	BySport         []SportStat
	Recent          []model.Activity
}

// Stats summarises the stored activities.
func (s *Store) Stats() (*Stats, error) {
	var stats Stats

	last, ok, err := s.Cursor()
	if err != nil {
		return nil, err
	}
	if ok {
		stats.LastSync = &last
	}

	if err := s.db.Model(&model.Activity{}).Count(&stats.TotalActivities).Error; err != nil {
		return nil, fmt.Errorf("counting activities: %w", err)
	}
	if err := s.db.Model(&model.ActivitySplit{}).Count(&stats.TotalSplits).Error; err != nil {
		return nil, fmt.Errorf("counting splits: %w", err)
	}

	err = s.db.Model(&model.Activity{}).
		Select("sport_type, count(*) as count, sum(distance)/1000.0 as total_km, sum(total_elevation_gain) as total_elevation_gain").
		Group("sport_type").
		Order("count desc").
		Scan(&stats.BySport).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating by sport type: %w", err)
	}

	err = s.db.Order("start_date_local desc").Limit(5).Find(&stats.Recent).Error
	if err != nil {
		return nil, fmt.Errorf("listing recent activities: %w", err)
	}

	return &stats, nil
}
