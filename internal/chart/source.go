package chart

import (
	"context"
	"time"
)

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Source supplies chart data for a symbol. The widget consumes this contract
// only; where the data comes from is an implementation detail.
type Source interface {
	// CurrentPrice returns the latest price for the symbol.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	// Candles returns up to limit bars for the symbol at the given interval.
	Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}
