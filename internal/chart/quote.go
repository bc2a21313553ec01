package chart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// QuoteSource fetches chart data from a Binance-compatible quote API.
type QuoteSource struct {
	client *resty.Client
	logger *zap.Logger
}

var _ Source = (*QuoteSource)(nil)

// NewQuoteSource creates a source against the given base URL,
// e.g. "https://api.binance.com/api/v3".
func NewQuoteSource(baseURL string, logger *zap.Logger) *QuoteSource {
	return &QuoteSource{
		client: resty.New().SetBaseURL(baseURL),
		logger: logger,
	}
}

// tickerPrice mirrors the /ticker/price response shape.
type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// CurrentPrice fetches the latest traded price for the symbol.
func (s *QuoteSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var ticker tickerPrice
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&ticker).
		Get("/ticker/price")
	if err != nil {
		return 0, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("price request for %s failed with status %s", symbol, resp.Status())
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q for %s: %w", ticker.Price, symbol, err)
	}
	return price, nil
}

// Candles fetches klines for the symbol. The API returns each bar as a
// positional array: openTime, open, high, low, close, volume, ...
func (s *QuoteSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	var raw [][]any
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		SetResult(&raw).
		Get("/klines")
	if err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("candle request for %s failed with status %s", symbol, resp.Status())
	}

	candles := make([]Candle, 0, len(raw))
	for _, bar := range raw {
		if len(bar) < 6 {
			return nil, fmt.Errorf("malformed candle entry for %s: %d fields", symbol, len(bar))
		}
		openTime, ok := bar[0].(float64)
		if !ok {
			return nil, fmt.Errorf("malformed candle open time for %s", symbol)
		}

		c := Candle{Time: time.UnixMilli(int64(openTime))}
		for i, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
			str, ok := bar[i+1].(string)
			if !ok {
				return nil, fmt.Errorf("malformed candle field %d for %s", i+1, symbol)
			}
			v, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse candle field %q for %s: %w", str, symbol, err)
			}
			*dst = v
		}
		candles = append(candles, c)
	}
	return candles, nil
}
