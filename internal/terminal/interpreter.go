package terminal

import (
	"fmt"
	"strings"
	"sync"

	"trading-dashboard-go/internal/portfolio"
	"trading-dashboard-go/internal/risk"
)

// PortfolioReader is the read-only view of the simulation the terminal
// formats. No command mutates portfolio state through it.
type PortfolioReader interface {
	Value() float64
	InitialValue() float64
	MetricsSnapshot() portfolio.Metrics
	Trades(limit int) []portfolio.Trade
}

// RiskReader exposes the active risk parameters for the position report.
type RiskReader interface {
	Parameters() risk.Parameters
}

// Interpreter dispatches terminal command lines against a fixed vocabulary
// and keeps the scrollback buffer of responses.
type Interpreter struct {
	state PortfolioReader
	risk  RiskReader

	mu         sync.Mutex
	scrollback []string
}

// tradesShown bounds the trades report to the most recent entries.
const tradesShown = 10

// NewInterpreter creates an interpreter over the given read-only views.
func NewInterpreter(state PortfolioReader, riskView RiskReader) *Interpreter {
	return &Interpreter{state: state, risk: riskView}
}

// Execute runs one raw input line and returns the response. The dispatch is
// case-insensitive; unknown commands echo the input verbatim rather than
// failing. Every non-empty response is appended to the scrollback.
func (i *Interpreter) Execute(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}

	var response string
	switch strings.ToLower(strings.Fields(trimmed)[0]) {
	case "help":
		response = i.helpText()
	case "status", "stats":
		response = i.statusText()
	case "trades":
		response = i.tradesText()
	case "balance":
		response = i.balanceText()
	case "performance", "position":
		response = i.performanceText()
	case "clear":
		i.mu.Lock()
		i.scrollback = nil
		i.mu.Unlock()
		return ""
	default:
		response = fmt.Sprintf("unknown command: %s", trimmed)
	}

	i.mu.Lock()
	i.scrollback = append(i.scrollback, response)
	i.mu.Unlock()
	return response
}

// Scrollback returns a copy of the response buffer.
func (i *Interpreter) Scrollback() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.scrollback))
	copy(out, i.scrollback)
	return out
}

func (i *Interpreter) helpText() string {
	return strings.Join([]string{
		"available commands:",
		"  help         show this message",
		"  status       portfolio status (alias: stats)",
		"  trades       recent trades",
		"  balance      current balance and daily P/L",
		"  performance  win rate, profit factor, drawdown (alias: position)",
		"  clear        clear the terminal",
	}, "\n")
}

func (i *Interpreter) statusText() string {
	value := i.state.Value()
	initial := i.state.InitialValue()
	change := 0.0
	if initial > 0 {
		change = (value - initial) / initial * 100
	}
	return strings.Join([]string{
		fmt.Sprintf("portfolio value: $%.2f", value),
		fmt.Sprintf("initial value:   $%.2f", initial),
		fmt.Sprintf("total change:    %+.2f%%", change),
		fmt.Sprintf("trades recorded: %d", len(i.state.Trades(0))),
	}, "\n")
}

func (i *Interpreter) tradesText() string {
	trades := i.state.Trades(tradesShown)
	if len(trades) == 0 {
		return "no trades recorded"
	}
	lines := make([]string, 0, len(trades)+1)
	lines = append(lines, fmt.Sprintf("last %d trades:", len(trades)))
	for _, t := range trades {
		lines = append(lines, fmt.Sprintf("  %s %-4s %-10s %.4f @ $%.2f  %+.2f%%  [%s]",
			t.Timestamp.Format("15:04:05"), t.Side, t.Symbol, t.Amount, t.Price, t.PnLPercent, t.Status))
	}
	return strings.Join(lines, "\n")
}

func (i *Interpreter) balanceText() string {
	m := i.state.MetricsSnapshot()
	return strings.Join([]string{
		fmt.Sprintf("balance:   $%.2f", i.state.Value()),
		fmt.Sprintf("daily P/L: %+.2f%%", m.DailyPnL),
	}, "\n")
}

func (i *Interpreter) performanceText() string {
	m := i.state.MetricsSnapshot()
	p := i.risk.Parameters()
	return strings.Join([]string{
		fmt.Sprintf("win rate:      %.1f%%", m.WinRate),
		fmt.Sprintf("profit factor: %.2f", m.ProfitFactor),
		fmt.Sprintf("max drawdown:  %.2f%%", m.MaxDrawdown),
		fmt.Sprintf("timeframe:     %s (%dx leverage)", p.Timeframe, p.Leverage),
		fmt.Sprintf("position size: %.2f%%", p.PositionSizePercent),
	}, "\n")
}
