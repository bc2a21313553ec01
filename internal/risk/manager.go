package risk

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidTimeframe is returned when the timeframe key is not in the preset table.
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	// ErrInvalidLeverage is returned when the leverage is not allowed by the active preset.
	ErrInvalidLeverage = errors.New("invalid leverage")
)

// Parameters is the derived view of the active preset handed to consumers.
type Parameters struct {
	Timeframe           string   `json:"timeframe"`
	TargetProfit        float64  `json:"target_profit"`
	StopLoss            float64  `json:"stop_loss"`
	MaxTradesPerDay     int      `json:"max_trades_per_day"`
	Leverage            int      `json:"leverage"`
	DefaultLeverage     int      `json:"default_leverage"`
	PositionSizePercent float64  `json:"position_size_percent"`
	Indicators          []string `json:"indicators"`
}

// DailySignal reports a threshold crossing of the daily P/L accumulator.
// Both signals are pure reporting; nothing in the engine enforces them.
type DailySignal int

const (
	SignalNone DailySignal = iota
	SignalLossLimit
	SignalProfitTarget
)

// Manager tracks the selected timeframe, the selected leverage and the daily
// P/L accumulator. Failed mutations leave the state unchanged.
type Manager struct {
	logger *zap.Logger

	mu        sync.RWMutex
	timeframe string
	leverage  int

	dailyPnL    float64
	day         time.Time
	lossFired   bool
	profitFired bool
}

// NewManager creates a manager with the given starting timeframe and its
// default leverage.
func NewManager(timeframe string, logger *zap.Logger) (*Manager, error) {
	preset, ok := presets[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeframe, timeframe)
	}
	return &Manager{
		logger:    logger,
		timeframe: timeframe,
		leverage:  preset.DefaultLeverage,
	}, nil
}

// SetTimeframe switches the active preset and resets the leverage to the new
// preset's default.
func (m *Manager) SetTimeframe(key string) error {
	preset, ok := presets[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTimeframe, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeframe = key
	m.leverage = preset.DefaultLeverage
	m.logger.Info("Timeframe selected",
		zap.String("timeframe", key),
		zap.Int("leverage", preset.DefaultLeverage))
	return nil
}

// SetLeverage selects a leverage from the active preset's allowed set.
func (m *Manager) SetLeverage(v int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	preset := presets[m.timeframe]
	for _, allowed := range preset.Leverages {
		if v == allowed {
			m.leverage = v
			m.logger.Info("Leverage selected", zap.Int("leverage", v))
			return nil
		}
	}
	return fmt.Errorf("%w: %dx is not allowed for the %s timeframe", ErrInvalidLeverage, v, m.timeframe)
}

// Timeframe returns the active timeframe key.
func (m *Manager) Timeframe() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeframe
}

// Leverage returns the selected leverage.
func (m *Manager) Leverage() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.leverage
}

// Parameters derives the risk parameters from the active preset and leverage.
// Position size scales down as the selected leverage exceeds the default.
func (m *Manager) Parameters() Parameters {
	m.mu.RLock()
	defer m.mu.RUnlock()

	preset := presets[m.timeframe]
	size := 100 / float64(preset.MaxTradesPerDay) / (float64(m.leverage) / float64(preset.DefaultLeverage))

	return Parameters{
		Timeframe:           m.timeframe,
		TargetProfit:        preset.TargetProfit,
		StopLoss:            preset.StopLoss,
		MaxTradesPerDay:     preset.MaxTradesPerDay,
		Leverage:            m.leverage,
		DefaultLeverage:     preset.DefaultLeverage,
		PositionSizePercent: size,
		Indicators:          preset.Indicators,
	}
}

// Preset returns a copy of the active preset.
func (m *Manager) Preset() Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return presets[m.timeframe]
}

// DailyPnL returns the accumulated daily P/L percentage.
func (m *Manager) DailyPnL() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dailyPnL
}

// RecordDailyPnL adds a P/L percentage to the daily accumulator and reports a
// signal the first time a threshold is crossed that day. The accumulator and
// the fired flags reset when the day changes.
func (m *Manager) RecordDailyPnL(pct float64, now time.Time) DailySignal {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !day.Equal(m.day) {
		m.day = day
		m.dailyPnL = 0
		m.lossFired = false
		m.profitFired = false
	}

	m.dailyPnL += pct
	preset := presets[m.timeframe]

	if !m.lossFired && m.dailyPnL <= -preset.DailyLossLimit {
		m.lossFired = true
		m.logger.Warn("Daily loss limit reached",
			zap.Float64("daily_pnl", m.dailyPnL),
			zap.Float64("limit", preset.DailyLossLimit))
		return SignalLossLimit
	}
	if !m.profitFired && m.dailyPnL >= preset.DailyProfitTarget {
		m.profitFired = true
		m.logger.Info("Daily profit target reached",
			zap.Float64("daily_pnl", m.dailyPnL),
			zap.Float64("target", preset.DailyProfitTarget))
		return SignalProfitTarget
	}
	return SignalNone
}
