package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"trading-dashboard-go/internal/chart"
	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/portfolio"
	"trading-dashboard-go/internal/risk"
	"trading-dashboard-go/internal/terminal"
	"trading-dashboard-go/internal/wallet"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// metamaskInstallURL is surfaced when no wallet provider is configured.
const metamaskInstallURL = "https://metamask.io/download/"

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log     *zap.Logger
	db      *gorm.DB
	engine  *portfolio.Engine
	term    *terminal.Interpreter
	risk    *risk.Manager
	monitor *wallet.Monitor
	widget  *chart.Widget
	started time.Time
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB, engine *portfolio.Engine, term *terminal.Interpreter,
	riskMgr *risk.Manager, monitor *wallet.Monitor, widget *chart.Widget) *APIHandler {
	return &APIHandler{
		log:     log,
		db:      db,
		engine:  engine,
		term:    term,
		risk:    riskMgr,
		monitor: monitor,
		widget:  widget,
		started: time.Now(),
	}
}

// RegisterRoutes attaches all API endpoints to the mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.StatusHandler)
	mux.HandleFunc("/api/trades", h.TradesHandler)
	mux.HandleFunc("/api/performance", h.PerformanceHandler)
	mux.HandleFunc("/api/risk", h.RiskHandler)
	mux.HandleFunc("/api/timeframe", h.TimeframeHandler)
	mux.HandleFunc("/api/leverage", h.LeverageHandler)
	mux.HandleFunc("/api/terminal", h.TerminalHandler)
	mux.HandleFunc("/api/wallet", h.WalletHandler)
	mux.HandleFunc("/api/wallet/connect", h.WalletConnectHandler)
	mux.HandleFunc("/api/chart/config", h.ChartConfigHandler)
	mux.HandleFunc("/api/chart/candles", h.ChartCandlesHandler)
	mux.HandleFunc("/api/chart/symbol", h.ChartSymbolHandler)
	mux.HandleFunc("/api/chart/interval", h.ChartIntervalHandler)
	mux.HandleFunc("/ws", h.StreamHandler)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}

// StatusHandler returns the portfolio status summary.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	value := h.engine.Value()
	initial := h.engine.InitialValue()
	change := 0.0
	if initial > 0 {
		change = (value - initial) / initial * 100
	}

	h.writeJSON(w, struct {
		Value         float64           `json:"value"`
		InitialValue  float64           `json:"initial_value"`
		ChangePercent float64           `json:"change_percent"`
		TradeCount    int               `json:"trade_count"`
		Metrics       portfolio.Metrics `json:"metrics"`
		Uptime        string            `json:"uptime"`
	}{
		Value:         value,
		InitialValue:  initial,
		ChangePercent: change,
		TradeCount:    len(h.engine.Trades(0)),
		Metrics:       h.engine.MetricsSnapshot(),
		Uptime:        time.Since(h.started).String(),
	})
}

// TradesHandler returns journaled trades, most recent first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	var trades []models.Trade
	if err := h.db.Order("timestamp desc").Limit(100).Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades from journal", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, trades)
}

// PerformanceHandler returns the derived metrics and the value curve.
func (h *APIHandler) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, struct {
		Metrics portfolio.Metrics    `json:"metrics"`
		History []portfolio.Snapshot `json:"history"`
	}{
		Metrics: h.engine.MetricsSnapshot(),
		History: h.engine.History(),
	})
}

// RiskHandler returns the active risk parameters and the daily P/L accumulator.
func (h *APIHandler) RiskHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, struct {
		Parameters risk.Parameters `json:"parameters"`
		DailyPnL   float64         `json:"daily_pnl"`
		Timeframes []string        `json:"timeframes"`
	}{
		Parameters: h.risk.Parameters(),
		DailyPnL:   h.risk.DailyPnL(),
		Timeframes: risk.Timeframes(),
	})
}

// TimeframeHandler selects a trading timeframe.
func (h *APIHandler) TimeframeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Timeframe string `json:"timeframe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.risk.SetTimeframe(req.Timeframe); err != nil {
		if errors.Is(err, risk.ErrInvalidTimeframe) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to set timeframe", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.risk.Parameters())
}

// LeverageHandler selects a leverage from the active preset's allowed set.
func (h *APIHandler) LeverageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Leverage int `json:"leverage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.risk.SetLeverage(req.Leverage); err != nil {
		if errors.Is(err, risk.ErrInvalidLeverage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to set leverage", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.risk.Parameters())
}

// TerminalHandler executes one terminal command (POST) or returns the
// scrollback buffer (GET).
func (h *APIHandler) TerminalHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, struct {
			Scrollback []string `json:"scrollback"`
		}{Scrollback: h.term.Scrollback()})
	case http.MethodPost:
		var req struct {
			Command string `json:"command"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		h.writeJSON(w, struct {
			Output string `json:"output"`
		}{Output: h.term.Execute(req.Command)})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// WalletHandler returns the wallet connection state. When no provider is
// configured the response carries the install link instead.
func (h *APIHandler) WalletHandler(w http.ResponseWriter, r *http.Request) {
	status := h.monitor.Status()
	resp := struct {
		wallet.Status
		InstallURL string `json:"install_url,omitempty"`
	}{Status: status}
	if !status.Installed {
		resp.InstallURL = metamaskInstallURL
	}
	h.writeJSON(w, resp)
}

// WalletConnectHandler asks the provider to expose its accounts.
func (h *APIHandler) WalletConnectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status, err := h.monitor.Connect(r.Context())
	if err != nil {
		if errors.Is(err, wallet.ErrNotConfigured) {
			http.Error(w, "Wallet provider not configured", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Wallet connect failed", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, status)
}

// ChartConfigHandler returns the active widget configuration.
func (h *APIHandler) ChartConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.widget.Configuration())
}

// ChartCandlesHandler returns the candle series for the active symbol.
func (h *APIHandler) ChartCandlesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	candles, err := h.widget.Candles(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to get candles", zap.Error(err))
		http.Error(w, "Failed to get candles", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, candles)
}

// ChartSymbolHandler changes the charted symbol.
func (h *APIHandler) ChartSymbolHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.widget.SetSymbol(req.Symbol); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, h.widget.Configuration())
}

// ChartIntervalHandler changes the chart interval.
func (h *APIHandler) ChartIntervalHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.widget.SetInterval(req.Interval); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, h.widget.Configuration())
}
