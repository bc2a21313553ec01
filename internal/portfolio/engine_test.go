package portfolio

import (
	"testing"
	"time"

	"trading-dashboard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupJournal creates a non-shared in-memory database for each test.
func setupJournal(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Trade{}, &models.Snapshot{}))
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB, tradeProbability float64) *Engine {
	t.Helper()
	sim := NewRandomWalk(0.5, tradeProbability, []string{"BTCUSDT", "ETHUSDT"}, 42)
	engine, err := NewEngine(zap.NewNop(), sim, sim, db, 10000, time.Second)
	assert.NoError(t, err)
	return engine
}

func TestEngineTick(t *testing.T) {
	t.Run("AppendsSnapshotAndStaysPositive", func(t *testing.T) {
		engine := newTestEngine(t, nil, 0)

		for i := 0; i < 200; i++ {
			assert.NoError(t, engine.Tick())
			assert.Greater(t, engine.Value(), 0.0)
		}
		assert.Len(t, engine.History(), 201)
	})

	t.Run("BoundsTheStep", func(t *testing.T) {
		engine := newTestEngine(t, nil, 0)

		prev := engine.Value()
		for i := 0; i < 50; i++ {
			assert.NoError(t, engine.Tick())
			value := engine.Value()
			change := (value - prev) / prev * 100
			assert.LessOrEqual(t, change, 0.5)
			assert.GreaterOrEqual(t, change, -0.5)
			prev = value
		}
	})

	t.Run("SynthesizesTradesEventually", func(t *testing.T) {
		engine := newTestEngine(t, nil, 1.0) // trade on every tick
		assert.NoError(t, engine.Tick())
		assert.Len(t, engine.Trades(0), 1)

		m := engine.MetricsSnapshot()
		assert.GreaterOrEqual(t, m.WinRate, 0.0)
		assert.LessOrEqual(t, m.WinRate, 100.0)
	})
}

func TestEngineJournal(t *testing.T) {
	db := setupJournal(t)
	engine := newTestEngine(t, db, 1.0)

	assert.NoError(t, engine.Tick())
	assert.NoError(t, engine.Tick())

	var trades []models.Trade
	assert.NoError(t, db.Find(&trades).Error)
	assert.Len(t, trades, 2)
	for _, trade := range trades {
		assert.Contains(t, []string{models.SideBuy, models.SideSell}, trade.Side)
		assert.Greater(t, trade.Price, 0.0)
	}

	var count int64
	assert.NoError(t, db.Model(&models.Snapshot{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestEngineSubscribe(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	updates, cancel := engine.Subscribe()
	defer cancel()

	assert.NoError(t, engine.Tick())

	select {
	case update := <-updates:
		assert.Equal(t, engine.Value(), update.Value)
		assert.Nil(t, update.Trade)
	case <-time.After(time.Second):
		t.Fatal("expected an update after a tick")
	}
}

func TestEngineSubscribeCancel(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	updates, cancel := engine.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-updates
	assert.False(t, open)
}

func TestEngineRecordTrade(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	trade := Trade{
		Symbol:     "ETHUSDT",
		Side:       SideSell,
		Price:      1800,
		Amount:     1.5,
		PnLPercent: -2,
		Timestamp:  time.Now(),
		Status:     StatusClosed,
	}
	assert.NoError(t, engine.RecordTrade(trade))

	trades := engine.Trades(1)
	assert.Len(t, trades, 1)
	assert.Equal(t, "ETHUSDT", trades[0].Symbol)
	assert.Equal(t, 0.0, engine.MetricsSnapshot().WinRate)
}

func TestEngineTradesNewestFirst(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	for i, symbol := range []string{"AAA", "BBB", "CCC"} {
		assert.NoError(t, engine.RecordTrade(Trade{
			Symbol:    symbol,
			Side:      SideBuy,
			Price:     100,
			Amount:    1,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Status:    StatusClosed,
		}))
	}

	trades := engine.Trades(2)
	assert.Len(t, trades, 2)
	assert.Equal(t, "CCC", trades[0].Symbol)
	assert.Equal(t, "BBB", trades[1].Symbol)
}
