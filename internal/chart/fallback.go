package chart

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

// FallbackSource generates a local random-walk series when the real quote API
// is unavailable. Per-symbol walks are kept so repeated calls continue the
// same series instead of jumping around.
type FallbackSource struct {
	mu    sync.Mutex
	walks map[string]*walk
	seed  int64
}

var _ Source = (*FallbackSource)(nil)

type walk struct {
	rng   *rand.Rand
	price float64
}

// NewFallbackSource creates a generator. The seed makes series reproducible;
// pass 0 to derive one per symbol.
func NewFallbackSource(seed int64) *FallbackSource {
	return &FallbackSource{walks: make(map[string]*walk), seed: seed}
}

func (s *FallbackSource) walkFor(symbol string) *walk {
	if w, ok := s.walks[symbol]; ok {
		return w
	}

	seed := s.seed
	if seed == 0 {
		h := fnv.New64a()
		h.Write([]byte(symbol))
		seed = int64(h.Sum64())
	}
	rng := rand.New(rand.NewSource(seed))
	w := &walk{rng: rng, price: 100 + rng.Float64()*40000}
	s.walks[symbol] = w
	return w
}

// CurrentPrice advances the walk one step and returns the new price.
func (s *FallbackSource) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.walkFor(symbol)
	w.step()
	return w.price, nil
}

// Candles generates a series ending now, one bar per interval.
func (s *FallbackSource) Candles(_ context.Context, symbol, interval string, limit int) ([]Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := intervalDuration(interval)
	w := s.walkFor(symbol)
	start := time.Now().Add(-time.Duration(limit) * step)

	candles := make([]Candle, 0, limit)
	for i := 0; i < limit; i++ {
		open := w.price
		high, low := open, open
		// a few intra-bar moves so high/low bracket open/close
		for j := 0; j < 4; j++ {
			w.step()
			if w.price > high {
				high = w.price
			}
			if w.price < low {
				low = w.price
			}
		}
		candles = append(candles, Candle{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  w.price,
			Volume: 10 + w.rng.Float64()*990,
		})
	}
	return candles, nil
}

// step applies one bounded random move to the walk.
func (w *walk) step() {
	change := (w.rng.Float64()*2 - 1) * 0.004 // +/- 0.4%
	w.price *= 1 + change
	if w.price < 1 {
		w.price = 1
	}
}

// intervalDuration maps chart interval strings (minutes, or suffixed values
// like "1h"/"1d") to a duration, defaulting to 15 minutes.
func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1":
		return time.Minute
	case "5", "5m":
		return 5 * time.Minute
	case "15", "15m":
		return 15 * time.Minute
	case "30", "30m":
		return 30 * time.Minute
	case "60", "1h":
		return time.Hour
	case "240", "4h":
		return 4 * time.Hour
	case "D", "1d":
		return 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}
