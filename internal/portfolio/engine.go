package portfolio

import (
	"context"
	"sync"
	"time"

	"trading-dashboard-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Update is published to subscribers after every tick.
type Update struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Metrics   Metrics   `json:"metrics"`
	Trade     *Trade    `json:"trade,omitempty"` // set when a trade was recorded this tick
}

// Engine owns the portfolio state and evolves it on a fixed timer. All state
// access goes through the engine, which serializes it with a mutex; consumers
// receive notifications through Subscribe rather than polling.
type Engine struct {
	logger       *zap.Logger
	source       PriceSource
	sim          TradeSimulator
	db           *gorm.DB // optional trade journal, may be nil
	tickInterval time.Duration

	mu    sync.RWMutex
	state *State

	subMu  sync.Mutex
	subs   map[int]chan Update
	nextID int
}

// NewEngine creates an engine around a fresh portfolio state. The db is the
// optional trade journal; pass nil to keep the simulation entirely in memory.
func NewEngine(logger *zap.Logger, source PriceSource, sim TradeSimulator, db *gorm.DB, initialValue float64, tickInterval time.Duration) (*Engine, error) {
	state, err := NewState(initialValue, time.Now())
	if err != nil {
		return nil, err
	}
	return &Engine{
		logger:       logger,
		source:       source,
		sim:          sim,
		db:           db,
		tickInterval: tickInterval,
		state:        state,
		subs:         make(map[int]chan Update),
	}, nil
}

// Run starts the simulation loop and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	e.logger.Info("Starting simulation loop", zap.Duration("interval", e.tickInterval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping simulation engine...")
			e.closeSubscribers()
			return
		case <-ticker.C:
			if err := e.Tick(); err != nil {
				e.logger.Error("Tick failed", zap.Error(err))
			}
		}
	}
}

// Tick applies one simulation step: a random percentage change to the
// portfolio value, a new snapshot, and possibly a synthesized trade.
func (e *Engine) Tick() error {
	now := time.Now()
	change := e.source.NextChange()

	e.mu.Lock()
	value := e.state.CurrentValue * (1 + change/100)
	if err := e.state.AppendSnapshot(now, value); err != nil {
		e.mu.Unlock()
		return err
	}

	var recorded *Trade
	if e.sim != nil {
		if t, ok := e.sim.MaybeTrade(now); ok {
			if err := e.state.RecordTrade(t); err != nil {
				e.mu.Unlock()
				return err
			}
			recorded = &t
		}
	}

	update := Update{
		Timestamp: now,
		Value:     e.state.CurrentValue,
		Metrics:   e.state.Metrics,
		Trade:     recorded,
	}
	e.mu.Unlock()

	e.logger.Debug("Tick applied",
		zap.Float64("change_pct", change),
		zap.Float64("value", update.Value))

	e.journal(now, update.Value, recorded)
	e.publish(update)
	return nil
}

// RecordTrade records an externally supplied trade, journals it and notifies
// subscribers. Used by consumers that inject trades outside the simulator.
func (e *Engine) RecordTrade(t Trade) error {
	e.mu.Lock()
	if err := e.state.RecordTrade(t); err != nil {
		e.mu.Unlock()
		return err
	}
	update := Update{
		Timestamp: t.Timestamp,
		Value:     e.state.CurrentValue,
		Metrics:   e.state.Metrics,
		Trade:     &t,
	}
	e.mu.Unlock()

	e.journal(t.Timestamp, update.Value, &t)
	e.publish(update)
	return nil
}

// journal persists the snapshot and the optional trade. Journal failures are
// logged and never stop the simulation.
func (e *Engine) journal(now time.Time, value float64, t *Trade) {
	if e.db == nil {
		return
	}

	snap := models.Snapshot{Timestamp: now.Unix(), Value: value}
	if err := e.db.Create(&snap).Error; err != nil {
		e.logger.Error("Failed to journal snapshot", zap.Error(err))
	}

	if t == nil {
		return
	}
	record := models.Trade{
		Symbol:     t.Symbol,
		Side:       t.Side,
		Price:      t.Price,
		Amount:     t.Amount,
		PnLPercent: t.PnLPercent,
		Timestamp:  t.Timestamp.Unix(),
		Status:     t.Status,
	}
	if err := e.db.Create(&record).Error; err != nil {
		e.logger.Error("Failed to journal trade", zap.Error(err))
	} else {
		e.logger.Info("Journaled simulated trade",
			zap.String("symbol", t.Symbol),
			zap.String("side", t.Side),
			zap.Float64("pnl_percent", t.PnLPercent))
	}
}

// Subscribe registers a consumer for tick updates. The returned cancel
// function must be called to release the subscription. Slow consumers miss
// updates instead of blocking the engine.
func (e *Engine) Subscribe() (<-chan Update, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextID
	e.nextID++
	ch := make(chan Update, 16)
	e.subs[id] = ch

	cancel := func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (e *Engine) publish(u Update) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default: // drop for slow consumers
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}

// Value returns the current portfolio value.
func (e *Engine) Value() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.CurrentValue
}

// InitialValue returns the starting portfolio value.
func (e *Engine) InitialValue() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.InitialValue
}

// MetricsSnapshot returns the current derived metrics.
func (e *Engine) MetricsSnapshot() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Metrics
}

// Trades returns up to limit most recent trades, newest first. A non-positive
// limit returns all trades.
func (e *Engine) Trades(limit int) []Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.state.Trades)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Trade, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.state.Trades[i])
	}
	return out
}

// History returns a copy of the value curve.
func (e *Engine) History() []Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Snapshot, len(e.state.History))
	copy(out, e.state.History)
	return out
}
