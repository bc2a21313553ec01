package main

import (
	"errors"
	"testing"
	"time"

	"trading-dashboard-go/internal/portfolio"
	"trading-dashboard-go/internal/risk"
	"trading-dashboard-go/internal/wallet"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFeedRiskAccumulator(t *testing.T) {
	riskMgr, err := risk.NewManager("scalp", zap.NewNop())
	assert.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	updates := make(chan portfolio.Update, 4)
	updates <- portfolio.Update{Timestamp: now} // tick without a trade
	updates <- portfolio.Update{Timestamp: now, Trade: &portfolio.Trade{Status: portfolio.StatusOpen, PnLPercent: 9}}
	updates <- portfolio.Update{Timestamp: now, Trade: &portfolio.Trade{Status: portfolio.StatusClosed, PnLPercent: 1.5}}
	updates <- portfolio.Update{Timestamp: now, Trade: &portfolio.Trade{Status: portfolio.StatusClosed, PnLPercent: -4.0}}
	close(updates)

	feedRiskAccumulator(updates, riskMgr, zap.NewNop())

	// only the two closed trades count
	assert.InDelta(t, -2.5, riskMgr.DailyPnL(), 1e-9)
}

func TestFeedRiskAccumulatorLogsLossLimit(t *testing.T) {
	riskMgr, err := risk.NewManager("scalp", zap.NewNop())
	assert.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	updates := make(chan portfolio.Update, 1)
	updates <- portfolio.Update{Timestamp: now, Trade: &portfolio.Trade{Status: portfolio.StatusClosed, PnLPercent: -2.5}}
	close(updates)

	core, logs := observer.New(zap.WarnLevel)
	feedRiskAccumulator(updates, riskMgr, zap.New(core))

	assert.Equal(t, 1, logs.FilterMessage("Trading halted for the day by loss limit").Len())
}

func TestDrainWalletEvents(t *testing.T) {
	events := make(chan wallet.Event, 2)
	events <- wallet.Event{Type: wallet.EventConnect, Address: "0xabc", Network: "Ethereum Mainnet"}
	events <- wallet.Event{Type: wallet.EventError, Err: errors.New("rpc down")}
	close(events)

	core, logs := observer.New(zap.InfoLevel)
	drainWalletEvents(events, zap.New(core))

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("Wallet event").FilterField(zap.String("type", "connect")).Len())
}
