package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustState(t *testing.T, initial float64) *State {
	t.Helper()
	s, err := NewState(initial, time.Now())
	assert.NoError(t, err)
	return s
}

func closedTrade(pnl float64) Trade {
	return Trade{
		Symbol:     "BTCUSDT",
		Side:       SideBuy,
		Price:      30000,
		Amount:     0.1,
		PnLPercent: pnl,
		Timestamp:  time.Now(),
		Status:     StatusClosed,
	}
}

func TestNewState(t *testing.T) {
	t.Run("StartsWithOneSnapshot", func(t *testing.T) {
		s := mustState(t, 10000)
		assert.Equal(t, 10000.0, s.CurrentValue)
		assert.Len(t, s.History, 1)
		assert.Equal(t, 0.0, s.Metrics.MaxDrawdown)
	})

	t.Run("RejectsNonPositiveInitialValue", func(t *testing.T) {
		_, err := NewState(0, time.Now())
		assert.Error(t, err)
		_, err = NewState(-100, time.Now())
		assert.Error(t, err)
	})
}

func TestWinRateAndProfitFactor(t *testing.T) {
	testCases := []struct {
		name           string
		pnls           []float64
		expectedRate   float64
		expectedFactor float64
	}{
		{
			// gross profit 5, gross loss 5
			name:           "MixedHistory",
			pnls:           []float64{2, -1, 3, -4},
			expectedRate:   50,
			expectedFactor: 1.0,
		},
		{
			name:           "AllWinners",
			pnls:           []float64{1, 2, 3},
			expectedRate:   100,
			expectedFactor: 6, // no losses: profit factor is the gross profit
		},
		{
			name:           "AllLosers",
			pnls:           []float64{-1, -2},
			expectedRate:   0,
			expectedFactor: 0,
		},
		{
			name:           "SingleBreakEvenIsNotAWin",
			pnls:           []float64{0},
			expectedRate:   0,
			expectedFactor: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := mustState(t, 10000)
			for _, pnl := range tc.pnls {
				assert.NoError(t, s.RecordTrade(closedTrade(pnl)))
			}
			assert.InDelta(t, tc.expectedRate, s.Metrics.WinRate, 0.001)
			assert.InDelta(t, tc.expectedFactor, s.Metrics.ProfitFactor, 0.001)
			assert.GreaterOrEqual(t, s.Metrics.WinRate, 0.0)
			assert.LessOrEqual(t, s.Metrics.WinRate, 100.0)
		})
	}
}

func TestRecordTradeValidation(t *testing.T) {
	s := mustState(t, 10000)

	assert.Error(t, s.RecordTrade(Trade{Symbol: "X", Side: SideBuy, Price: 0, Amount: 1}))
	assert.Error(t, s.RecordTrade(Trade{Symbol: "X", Side: SideBuy, Price: 1, Amount: 0}))
	assert.Error(t, s.RecordTrade(Trade{Symbol: "X", Side: "HOLD", Price: 1, Amount: 1}))
	assert.Empty(t, s.Trades)
}

func TestCloseTrade(t *testing.T) {
	s := mustState(t, 10000)
	open := closedTrade(0)
	open.Status = StatusOpen
	assert.NoError(t, s.RecordTrade(open))

	assert.NoError(t, s.CloseTrade(0, 2.5))
	assert.Equal(t, StatusClosed, s.Trades[0].Status)
	assert.Equal(t, 2.5, s.Trades[0].PnLPercent)
	assert.Equal(t, 100.0, s.Metrics.WinRate)

	// closed trades stay closed
	assert.Error(t, s.CloseTrade(0, 1))
	assert.Error(t, s.CloseTrade(5, 1))
}

func TestMaxDrawdown(t *testing.T) {
	testCases := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"SingleEntry", []float64{1000}, 0},
		{"MonotonicallyIncreasing", []float64{1000, 1100, 1200}, 0},
		// peak 1100, trough 900: (1100-900)/1100 = 18.18%
		{"DipBelowPeak", []float64{1000, 1100, 900}, 18.1818},
		{"RecoveryKeepsWorstDip", []float64{1000, 500, 2000, 1900}, 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			history := make([]Snapshot, 0, len(tc.values))
			now := time.Now()
			for i, v := range tc.values {
				history = append(history, Snapshot{Timestamp: now.Add(time.Duration(i) * time.Second), Value: v})
			}
			assert.InDelta(t, tc.expected, MaxDrawdown(history), 0.001)
		})
	}
}

func TestAppendSnapshot(t *testing.T) {
	t.Run("AppendsInOrder", func(t *testing.T) {
		s := mustState(t, 1000)
		now := time.Now()
		assert.NoError(t, s.AppendSnapshot(now.Add(time.Second), 1100))
		assert.NoError(t, s.AppendSnapshot(now.Add(2*time.Second), 900))

		assert.Equal(t, 900.0, s.CurrentValue)
		assert.Len(t, s.History, 3)
		assert.InDelta(t, 18.1818, s.Metrics.MaxDrawdown, 0.001)
	})

	t.Run("RejectsOutOfOrderTimestamp", func(t *testing.T) {
		s := mustState(t, 1000)
		now := time.Now()
		assert.NoError(t, s.AppendSnapshot(now.Add(time.Minute), 1100))
		assert.Error(t, s.AppendSnapshot(now, 1200))
		assert.Len(t, s.History, 2)
	})

	t.Run("RejectsNonPositiveValue", func(t *testing.T) {
		s := mustState(t, 1000)
		assert.Error(t, s.AppendSnapshot(time.Now().Add(time.Second), 0))
		assert.Equal(t, 1000.0, s.CurrentValue)
	})
}

func TestDailyPnL(t *testing.T) {
	noon := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewState(1000, noon)
	assert.NoError(t, err)

	assert.NoError(t, s.AppendSnapshot(noon.Add(time.Minute), 1050))
	assert.InDelta(t, 5.0, s.Metrics.DailyPnL, 0.001)

	// the next day opens a fresh accumulator baseline
	assert.NoError(t, s.AppendSnapshot(noon.Add(24*time.Hour), 1050))
	assert.InDelta(t, 0.0, s.Metrics.DailyPnL, 0.001)
}
