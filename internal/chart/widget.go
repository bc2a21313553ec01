package chart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Config mirrors the embed contract of the charting widget: symbol, interval,
// theme and named feature flags.
type Config struct {
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	Theme    string          `json:"theme"`
	Features map[string]bool `json:"features"`
}

// Widget holds the active chart configuration and resolves data through a
// primary source, falling back to a locally generated random walk when the
// primary fails. A primary failure is logged and never fatal.
type Widget struct {
	logger   *zap.Logger
	primary  Source // may be nil when no quote API is configured
	fallback Source

	mu      sync.RWMutex
	cfg     Config
	ready   bool
	onReady []func()
}

// NewWidget creates a widget. primary may be nil, in which case every request
// is served by the fallback.
func NewWidget(cfg Config, primary Source, fallback Source, logger *zap.Logger) *Widget {
	if cfg.Features == nil {
		cfg.Features = map[string]bool{
			"hide_side_toolbar":   false,
			"allow_symbol_change": true,
			"save_image":          false,
		}
	}
	return &Widget{
		logger:   logger,
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
	}
}

// Configuration returns the active widget configuration.
func (w *Widget) Configuration() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// SetSymbol updates the charted symbol.
func (w *Widget) SetSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.Symbol = symbol
	w.logger.Info("Chart symbol changed", zap.String("symbol", symbol))
	return nil
}

// SetInterval updates the chart interval.
func (w *Widget) SetInterval(interval string) error {
	if interval == "" {
		return fmt.Errorf("interval must not be empty")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.Interval = interval
	w.logger.Info("Chart interval changed", zap.String("interval", interval))
	return nil
}

// OnReady registers a callback fired once the widget has served data for the
// first time. A callback registered after that fires immediately.
func (w *Widget) OnReady(fn func()) {
	w.mu.Lock()
	if w.ready {
		w.mu.Unlock()
		fn()
		return
	}
	w.onReady = append(w.onReady, fn)
	w.mu.Unlock()
}

// CurrentPrice resolves the latest price for the active symbol.
func (w *Widget) CurrentPrice(ctx context.Context) (float64, error) {
	w.mu.RLock()
	symbol := w.cfg.Symbol
	w.mu.RUnlock()

	price, err := w.resolvePrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	w.markReady()
	return price, nil
}

// Candles resolves the series for the active symbol and interval.
func (w *Widget) Candles(ctx context.Context, limit int) ([]Candle, error) {
	w.mu.RLock()
	symbol, interval := w.cfg.Symbol, w.cfg.Interval
	w.mu.RUnlock()

	candles, err := w.resolveCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	w.markReady()
	return candles, nil
}

func (w *Widget) resolvePrice(ctx context.Context, symbol string) (float64, error) {
	if w.primary != nil {
		price, err := w.primary.CurrentPrice(ctx, symbol)
		if err == nil {
			return price, nil
		}
		w.logger.Warn("Primary chart source failed, falling back to random walk",
			zap.String("symbol", symbol),
			zap.Error(err))
	}
	return w.fallback.CurrentPrice(ctx, symbol)
}

func (w *Widget) resolveCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	if w.primary != nil {
		candles, err := w.primary.Candles(ctx, symbol, interval, limit)
		if err == nil {
			return candles, nil
		}
		w.logger.Warn("Primary chart source failed, falling back to random walk",
			zap.String("symbol", symbol),
			zap.Error(err))
	}
	return w.fallback.Candles(ctx, symbol, interval, limit)
}

func (w *Widget) markReady() {
	w.mu.Lock()
	if w.ready {
		w.mu.Unlock()
		return
	}
	w.ready = true
	callbacks := w.onReady
	w.onReady = nil
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
