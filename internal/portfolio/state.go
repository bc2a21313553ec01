package portfolio

import (
	"fmt"
	"time"
)

// Trade side and status values.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Trade is one simulated trade held in memory. A trade is immutable once
// recorded except for the open -> closed transition, which also fixes its PnL.
type Trade struct {
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	PnLPercent float64   `json:"pnl_percent"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
}

// Snapshot is one point on the portfolio value curve.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Metrics are the statistics derived from the trade list and the value curve.
type Metrics struct {
	WinRate      float64 `json:"win_rate"`      // percent, [0,100]
	ProfitFactor float64 `json:"profit_factor"` // grossProfit / |grossLoss|
	MaxDrawdown  float64 `json:"max_drawdown"`  // percent, >= 0
	DailyPnL     float64 `json:"daily_pnl"`     // percent since day open
}

// State holds the simulated portfolio: the value curve, the trade history
// and the metrics derived from both. Trade statistics (win rate, profit
// factor) come from the trade list; curve statistics (drawdown, daily P/L)
// come from the snapshot history. State is not safe for concurrent use;
// the engine serializes access to it.
type State struct {
	InitialValue float64
	CurrentValue float64
	History      []Snapshot
	Trades       []Trade
	Metrics      Metrics
}

// NewState creates a portfolio state with a single snapshot at the initial value.
func NewState(initialValue float64, now time.Time) (*State, error) {
	if initialValue <= 0 {
		return nil, fmt.Errorf("initial value must be positive, got %f", initialValue)
	}
	return &State{
		InitialValue: initialValue,
		CurrentValue: initialValue,
		History:      []Snapshot{{Timestamp: now, Value: initialValue}},
	}, nil
}

// RecordTrade appends a trade to the history and recomputes the trade
// statistics over all recorded trades.
func (s *State) RecordTrade(t Trade) error {
	if t.Price <= 0 {
		return fmt.Errorf("trade price must be positive, got %f", t.Price)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("trade amount must be positive, got %f", t.Amount)
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("invalid trade side %q", t.Side)
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.Status != StatusOpen && t.Status != StatusClosed {
		return fmt.Errorf("invalid trade status %q", t.Status)
	}

	s.Trades = append(s.Trades, t)
	s.Metrics.WinRate = WinRate(s.Trades)
	s.Metrics.ProfitFactor = ProfitFactor(s.Trades)
	return nil
}

// CloseTrade transitions the trade at index i from open to closed, fixing its
// PnL, and recomputes the trade statistics.
func (s *State) CloseTrade(i int, pnlPercent float64) error {
	if i < 0 || i >= len(s.Trades) {
		return fmt.Errorf("trade index %d out of range", i)
	}
	if s.Trades[i].Status != StatusOpen {
		return fmt.Errorf("trade %d is not open", i)
	}
	s.Trades[i].Status = StatusClosed
	s.Trades[i].PnLPercent = pnlPercent
	s.Metrics.WinRate = WinRate(s.Trades)
	s.Metrics.ProfitFactor = ProfitFactor(s.Trades)
	return nil
}

// AppendSnapshot records a new portfolio value on the curve and recomputes the
// curve statistics. The history is append-only and time-ordered; a snapshot
// older than the last entry is rejected.
func (s *State) AppendSnapshot(now time.Time, value float64) error {
	if value <= 0 {
		return fmt.Errorf("portfolio value must stay positive, got %f", value)
	}
	if n := len(s.History); n > 0 && now.Before(s.History[n-1].Timestamp) {
		return fmt.Errorf("snapshot at %s is older than the last entry", now.Format(time.RFC3339))
	}

	s.CurrentValue = value
	s.History = append(s.History, Snapshot{Timestamp: now, Value: value})
	s.Metrics.MaxDrawdown = MaxDrawdown(s.History)
	s.Metrics.DailyPnL = dailyPnL(s.History, now)
	return nil
}

// WinRate returns the percentage of trades with a positive PnL, in [0,100].
// An empty history yields 0.
func WinRate(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnLPercent > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100
}

// ProfitFactor returns gross profit divided by the absolute gross loss.
// When there are no losses the gross profit itself is returned, so the
// ratio is always defined.
func ProfitFactor(trades []Trade) float64 {
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.PnLPercent > 0 {
			grossProfit += t.PnLPercent
		} else {
			grossLoss += -t.PnLPercent
		}
	}
	if grossLoss == 0 {
		return grossProfit
	}
	return grossProfit / grossLoss
}

// MaxDrawdown returns the maximum peak-to-trough decline over the value
// curve, as a percentage of the peak. A single-entry or monotonically
// non-decreasing history yields 0.
func MaxDrawdown(history []Snapshot) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range history {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		dd := (peak - p.Value) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// dailyPnL returns the percentage change since the first snapshot of the
// current day, or since the start of the history when the curve began today.
func dailyPnL(history []Snapshot, now time.Time) float64 {
	if len(history) == 0 {
		return 0
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	open := history[0]
	for _, p := range history {
		if !p.Timestamp.Before(dayStart) {
			open = p
			break
		}
	}
	if open.Value == 0 {
		return 0
	}
	return (history[len(history)-1].Value - open.Value) / open.Value * 100
}
