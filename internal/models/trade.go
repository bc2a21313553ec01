package models

import "gorm.io/gorm"

// Trade side and status values stored in the journal.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Trade represents a simulated trade record in the journal database.
type Trade struct {
	gorm.Model
	Symbol     string  `json:"symbol" gorm:"index"`
	Side       string  `json:"side"` // "BUY" or "SELL"
	Price      float64 `json:"price"`
	Amount     float64 `json:"amount"`
	PnLPercent float64 `json:"pnl_percent"`
	Timestamp  int64   `json:"timestamp"`
	Status     string  `json:"status" gorm:"default:open"`
}
