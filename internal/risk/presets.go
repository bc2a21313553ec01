package risk

// Preset holds the risk parameters for one trading timeframe.
type Preset struct {
	TargetProfit      float64  `json:"target_profit"` // percent per trade
	StopLoss          float64  `json:"stop_loss"`     // percent per trade
	MaxTradesPerDay   int      `json:"max_trades_per_day"`
	Leverages         []int    `json:"leverages"`
	DefaultLeverage   int      `json:"default_leverage"`
	Indicators        []string `json:"indicators"`
	DailyProfitTarget float64  `json:"daily_profit_target"` // percent
	DailyLossLimit    float64  `json:"daily_loss_limit"`    // percent, positive
}

// presets maps timeframe keys to their static risk parameters.
var presets = map[string]Preset{
	"scalp": {
		TargetProfit:      0.5,
		StopLoss:          0.3,
		MaxTradesPerDay:   20,
		Leverages:         []int{5, 10, 20},
		DefaultLeverage:   10,
		Indicators:        []string{"EMA(9)", "EMA(21)", "VWAP", "RSI(7)"},
		DailyProfitTarget: 3,
		DailyLossLimit:    2,
	},
	"day": {
		TargetProfit:      2,
		StopLoss:          1,
		MaxTradesPerDay:   5,
		Leverages:         []int{3, 5, 10},
		DefaultLeverage:   5,
		Indicators:        []string{"EMA(20)", "EMA(50)", "MACD", "RSI(14)"},
		DailyProfitTarget: 5,
		DailyLossLimit:    3,
	},
	"swing": {
		TargetProfit:      5,
		StopLoss:          3,
		MaxTradesPerDay:   2,
		Leverages:         []int{2, 3, 5},
		DefaultLeverage:   3,
		Indicators:        []string{"SMA(50)", "SMA(200)", "MACD", "Bollinger(20,2)"},
		DailyProfitTarget: 8,
		DailyLossLimit:    5,
	},
}

// Timeframes returns the known timeframe keys.
func Timeframes() []string {
	return []string{"scalp", "day", "swing"}
}
