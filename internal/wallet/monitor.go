package wallet

import (
	"context"
	"sync"
	"time"

	"trading-dashboard-go/internal/config"

	"go.uber.org/zap"
)

// EventType identifies a wallet connection event.
type EventType string

const (
	EventConnect         EventType = "connect"
	EventDisconnect      EventType = "disconnect"
	EventAccountsChanged EventType = "accountsChanged"
	EventChainChanged    EventType = "chainChanged"
	EventError           EventType = "error"
)

// Event carries the wallet state delivered on each connection change.
type Event struct {
	Type    EventType `json:"type"`
	Address string    `json:"address,omitempty"`
	Network string    `json:"network,omitempty"`
	Balance float64   `json:"balance,omitempty"`
	Err     error     `json:"-"`
}

// Status is the current wallet view served to the dashboard.
type Status struct {
	Installed bool    `json:"installed"`
	Connected bool    `json:"connected"`
	Address   string  `json:"address,omitempty"`
	Network   string  `json:"network,omitempty"`
	Balance   float64 `json:"balance,omitempty"`
}

// Monitor polls the wallet provider and turns state changes into typed
// events. When the provider fails while connected, it attempts a fixed number
// of reconnects spaced by a fixed delay, then gives up silently until a later
// poll succeeds again.
type Monitor struct {
	provider         Provider // nil when no endpoint is configured
	logger           *zap.Logger
	pollInterval     time.Duration
	reconnectDelay   time.Duration
	reconnectRetries int

	mu     sync.RWMutex
	status Status
	closed bool

	events chan Event
}

// NewMonitor creates a monitor over the given provider. A nil provider is the
// "not installed" state: Status reports it and Run exits immediately.
func NewMonitor(provider Provider, cfg *config.Wallet, logger *zap.Logger) *Monitor {
	return &Monitor{
		provider:         provider,
		logger:           logger,
		pollInterval:     time.Duration(cfg.PollInterval) * time.Second,
		reconnectDelay:   time.Duration(cfg.ReconnectDelay) * time.Second,
		reconnectRetries: cfg.ReconnectRetries,
		status:           Status{Installed: provider != nil},
		events:           make(chan Event, 16),
	}
}

// Events returns the channel of wallet events.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Status returns the current wallet view.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Connect asks the provider to expose its accounts and refreshes the state
// immediately. Used by the dashboard's explicit connect action.
func (m *Monitor) Connect(ctx context.Context) (Status, error) {
	if m.provider == nil {
		return m.Status(), ErrNotConfigured
	}
	if _, err := m.provider.RequestAccounts(ctx); err != nil {
		m.logger.Error("Wallet connect request failed", zap.Error(err))
		m.emit(Event{Type: EventError, Err: err})
		return m.Status(), err
	}
	m.poll(ctx)
	return m.Status(), nil
}

// Run polls the provider until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	defer m.shutdown()

	if m.provider == nil {
		m.logger.Warn("No wallet provider configured, monitor disabled")
		return
	}

	// First poll immediately so the dashboard does not wait a full interval.
	m.poll(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Stopping wallet monitor...")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll reads the wallet state once and emits events for any changes.
func (m *Monitor) poll(ctx context.Context) {
	status, err := m.read(ctx)
	if err != nil {
		m.handleFailure(ctx, err)
		return
	}
	m.apply(status)
}

// read queries accounts, chain id and balance in one pass.
func (m *Monitor) read(ctx context.Context) (Status, error) {
	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		return Status{}, err
	}
	if len(accounts) == 0 {
		return Status{Installed: true}, nil
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		return Status{}, err
	}
	balance, err := m.provider.Balance(ctx, accounts[0])
	if err != nil {
		return Status{}, err
	}

	return Status{
		Installed: true,
		Connected: true,
		Address:   accounts[0],
		Network:   NetworkName(chainID),
		Balance:   balance,
	}, nil
}

// apply diffs the new state against the last one and emits the matching events.
func (m *Monitor) apply(status Status) {
	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	switch {
	case status.Connected && !prev.Connected:
		m.emit(Event{Type: EventConnect, Address: status.Address, Network: status.Network, Balance: status.Balance})
	case !status.Connected && prev.Connected:
		m.emit(Event{Type: EventDisconnect})
	case status.Connected && status.Address != prev.Address:
		m.emit(Event{Type: EventAccountsChanged, Address: status.Address, Network: status.Network, Balance: status.Balance})
	case status.Connected && status.Network != prev.Network:
		m.emit(Event{Type: EventChainChanged, Address: status.Address, Network: status.Network, Balance: status.Balance})
	}
}

// handleFailure surfaces the error and, if we were connected, retries a fixed
// number of times before declaring a disconnect.
func (m *Monitor) handleFailure(ctx context.Context, err error) {
	m.logger.Error("Wallet provider call failed", zap.Error(err))
	m.emit(Event{Type: EventError, Err: err})

	m.mu.RLock()
	wasConnected := m.status.Connected
	m.mu.RUnlock()
	if !wasConnected {
		return
	}

	for i := 0; i < m.reconnectRetries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.reconnectDelay):
		}

		status, err := m.read(ctx)
		if err == nil {
			m.logger.Info("Wallet provider reconnected", zap.Int("attempt", i+1))
			m.apply(status)
			return
		}
		m.logger.Warn("Wallet reconnect attempt failed",
			zap.Int("attempt", i+1),
			zap.Error(err))
	}

	// Give up. The next regular poll may still bring the provider back.
	m.mu.Lock()
	m.status = Status{Installed: true}
	m.mu.Unlock()
	m.emit(Event{Type: EventDisconnect})
}

// shutdown closes the event channel. The closed flag keeps late callers such
// as Connect, which HTTP handlers may still reach while the server drains,
// from sending on the closed channel.
func (m *Monitor) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	close(m.events)
}

func (m *Monitor) emit(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.events <- e:
	default: // drop when no consumer keeps up
	}
}
