package portfolio

import (
	"math/rand"
	"time"
)

// PriceSource produces the next percentage change to apply to the portfolio
// value. Implementations stand in for a market data feed; swapping in a real
// feed does not touch the metrics engine.
type PriceSource interface {
	// NextChange returns a signed percentage, e.g. 0.3 for +0.3%.
	NextChange() float64
}

// TradeSimulator occasionally synthesizes a trade to stand in for real
// order execution.
type TradeSimulator interface {
	// MaybeTrade returns a trade and true when one should be recorded this tick.
	MaybeTrade(now time.Time) (Trade, bool)
}

// RandomWalk drives the simulation with uniform random draws. It implements
// both PriceSource and TradeSimulator.
type RandomWalk struct {
	rng              *rand.Rand
	maxStepPercent   float64
	tradeProbability float64
	symbols          []string
}

var _ PriceSource = (*RandomWalk)(nil)
var _ TradeSimulator = (*RandomWalk)(nil)

// NewRandomWalk creates a simulator drawing steps uniformly from
// [-maxStepPercent, +maxStepPercent] and synthesizing a trade with the given
// probability per tick. The seed makes runs reproducible in tests.
func NewRandomWalk(maxStepPercent, tradeProbability float64, symbols []string, seed int64) *RandomWalk {
	if len(symbols) == 0 {
		symbols = []string{"BTCUSDT"}
	}
	return &RandomWalk{
		rng:              rand.New(rand.NewSource(seed)),
		maxStepPercent:   maxStepPercent,
		tradeProbability: tradeProbability,
		symbols:          symbols,
	}
}

// NextChange draws a uniform percentage change in the configured range.
func (r *RandomWalk) NextChange() float64 {
	return (r.rng.Float64()*2 - 1) * r.maxStepPercent
}

// MaybeTrade synthesizes a closed random trade with the configured probability.
func (r *RandomWalk) MaybeTrade(now time.Time) (Trade, bool) {
	if r.rng.Float64() >= r.tradeProbability {
		return Trade{}, false
	}

	side := SideBuy
	if r.rng.Float64() < 0.5 {
		side = SideSell
	}

	return Trade{
		Symbol:     r.symbols[r.rng.Intn(len(r.symbols))],
		Side:       side,
		Price:      100 + r.rng.Float64()*50000,
		Amount:     0.01 + r.rng.Float64()*2,
		PnLPercent: (r.rng.Float64()*2 - 1) * 4, // [-4%, +4%]
		Timestamp:  now,
		Status:     StatusClosed,
	}, true
}
