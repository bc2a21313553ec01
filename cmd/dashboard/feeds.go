package main

import (
	"trading-dashboard-go/internal/portfolio"
	"trading-dashboard-go/internal/risk"
	"trading-dashboard-go/internal/wallet"

	"go.uber.org/zap"
)

// feedRiskAccumulator forwards each closed trade's P/L into the daily risk
// accumulator and logs threshold crossings. Returns when the updates channel
// closes.
func feedRiskAccumulator(updates <-chan portfolio.Update, riskMgr *risk.Manager, log *zap.Logger) {
	for u := range updates {
		if u.Trade == nil || u.Trade.Status != portfolio.StatusClosed {
			continue
		}
		switch riskMgr.RecordDailyPnL(u.Trade.PnLPercent, u.Timestamp) {
		case risk.SignalLossLimit:
			log.Warn("Trading halted for the day by loss limit",
				zap.Float64("daily_pnl", riskMgr.DailyPnL()))
		case risk.SignalProfitTarget:
			log.Info("Daily profit target met",
				zap.Float64("daily_pnl", riskMgr.DailyPnL()))
		}
	}
}

// drainWalletEvents logs wallet connection changes so the event channel
// buffer never fills up and drops them. Returns when the channel closes.
func drainWalletEvents(events <-chan wallet.Event, log *zap.Logger) {
	for e := range events {
		if e.Type == wallet.EventError {
			log.Warn("Wallet event", zap.String("type", string(e.Type)), zap.Error(e.Err))
			continue
		}
		log.Info("Wallet event",
			zap.String("type", string(e.Type)),
			zap.String("address", e.Address),
			zap.String("network", e.Network))
	}
}
