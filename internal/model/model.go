// Package model defines the database schema for the training database.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Activity is one synced Strava activity. StravaID is the sole natural key:
// a remote record is inserted once and never updated or deleted by the sync
// engine, so a later remote edit does not reach the local copy.
type Activity struct {
	gorm.Model
	StravaID           int64 `gorm:"uniqueIndex"`
	Name               string
	StartDateLocal     time.Time
	SportType          string
	WorkoutType        *int
	Distance           float64
	MovingTime         int64
	ElapsedTime        int64
	TotalElevationGain float64
	ElevHigh           *float64
	ElevLow            *float64
	AverageSpeed       float64
	MaxSpeed           float64
	HasHeartrate       bool
	AverageHeartrate   *float64
	MaxHeartrate       *float64
	SufferScore        *float64
	Calories           *float64
	PerceivedExertion  *float64
	DeviceName         string
	Trainer            bool
	Commute            bool
	Description        string
	// Notes is reserved for manual annotation and is never written by sync.
	Notes string
}

// ActivitySplit is one per-kilometre split of a run, inserted together with
// its parent activity and never updated.
type ActivitySplit struct {
	gorm.Model
	ActivityID                uint `gorm:"index"`
	SplitNumber               int
	SplitType                 string
	Distance                  float64
	ElapsedTime               int64
	MovingTime                int64
	ElevationDifference       *float64
	AverageSpeed              float64
	AverageGradeAdjustedSpeed *float64
	AverageHeartrate          *float64
	PaceZone                  *int
}

// SyncState is a key/value row of sync metadata, e.g. the last-sync cursor.
type SyncState struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}
