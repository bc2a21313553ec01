package models

import "gorm.io/gorm"

// Snapshot represents a persisted point on the portfolio value curve.
type Snapshot struct {
	gorm.Model
	Timestamp int64   `json:"timestamp" gorm:"index"`
	Value     float64 `json:"value"`
}
