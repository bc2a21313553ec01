package wallet

import (
	"context"
	"errors"
	"testing"

	"trading-dashboard-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockProvider is a mock implementation of the Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Accounts(ctx context.Context) ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProvider) ChainID(ctx context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProvider) Balance(ctx context.Context, address string) (float64, error) {
	args := m.Called(address)
	return args.Get(0).(float64), args.Error(1)
}

func testWalletConfig() *config.Wallet {
	return &config.Wallet{
		PollInterval:     1,
		ReconnectRetries: 2,
		ReconnectDelay:   0, // no waiting between reconnect attempts in tests
	}
}

func connectedProvider(address string, chainID int64, balance float64) *MockProvider {
	provider := new(MockProvider)
	provider.On("Accounts").Return([]string{address}, nil)
	provider.On("ChainID").Return(chainID, nil)
	provider.On("Balance", address).Return(balance, nil)
	return provider
}

func TestMonitorNotInstalled(t *testing.T) {
	monitor := NewMonitor(nil, testWalletConfig(), zap.NewNop())

	status := monitor.Status()
	assert.False(t, status.Installed)
	assert.False(t, status.Connected)

	// Run exits immediately and closes the event channel.
	monitor.Run(context.Background())
	_, open := <-monitor.Events()
	assert.False(t, open)
}

func TestMonitorConnectEvent(t *testing.T) {
	provider := connectedProvider("0xabc", 1, 2.5)
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())

	monitor.poll(context.Background())

	status := monitor.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "0xabc", status.Address)
	assert.Equal(t, "Ethereum Mainnet", status.Network)
	assert.Equal(t, 2.5, status.Balance)

	event := <-monitor.Events()
	assert.Equal(t, EventConnect, event.Type)
	assert.Equal(t, "0xabc", event.Address)
}

func TestMonitorAccountsChangedEvent(t *testing.T) {
	provider := connectedProvider("0xabc", 1, 2.5)
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())
	monitor.poll(context.Background())
	<-monitor.Events() // connect

	switched := connectedProvider("0xdef", 1, 7.0)
	monitor.provider = switched
	monitor.poll(context.Background())

	event := <-monitor.Events()
	assert.Equal(t, EventAccountsChanged, event.Type)
	assert.Equal(t, "0xdef", event.Address)
	assert.Equal(t, 7.0, event.Balance)
}

func TestMonitorChainChangedEvent(t *testing.T) {
	provider := connectedProvider("0xabc", 1, 2.5)
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())
	monitor.poll(context.Background())
	<-monitor.Events() // connect

	switched := connectedProvider("0xabc", 137, 2.5)
	monitor.provider = switched
	monitor.poll(context.Background())

	event := <-monitor.Events()
	assert.Equal(t, EventChainChanged, event.Type)
	assert.Equal(t, "Polygon", event.Network)
}

func TestMonitorNoAccountsIsNotConnected(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Accounts").Return([]string{}, nil)
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())

	monitor.poll(context.Background())

	status := monitor.Status()
	assert.True(t, status.Installed)
	assert.False(t, status.Connected)
	select {
	case event := <-monitor.Events():
		t.Fatalf("expected no event, got %s", event.Type)
	default:
	}
}

func TestMonitorConnect(t *testing.T) {
	t.Run("NotConfigured", func(t *testing.T) {
		monitor := NewMonitor(nil, testWalletConfig(), zap.NewNop())
		_, err := monitor.Connect(context.Background())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("RequestsAccountsAndRefreshes", func(t *testing.T) {
		provider := connectedProvider("0xabc", 1, 2.5)
		provider.On("RequestAccounts").Return([]string{"0xabc"}, nil)
		monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())

		status, err := monitor.Connect(context.Background())
		assert.NoError(t, err)
		assert.True(t, status.Connected)
		provider.AssertCalled(t, "RequestAccounts")
	})
}

func TestMonitorConnectAfterShutdown(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Accounts").Return([]string{}, errors.New("endpoint gone"))
	provider.On("RequestAccounts").Return([]string{}, errors.New("endpoint gone"))
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	monitor.Run(ctx)
	for range monitor.Events() {
		// drain until Run's shutdown closes the channel
	}

	// A straggling connect, as an HTTP handler may issue while the server
	// drains, must not send on the closed channel.
	assert.NotPanics(t, func() {
		_, err := monitor.Connect(context.Background())
		assert.Error(t, err)
	})
}

func TestMonitorReconnectAndGiveUp(t *testing.T) {
	provider := connectedProvider("0xabc", 1, 2.5)
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())
	monitor.poll(context.Background())
	<-monitor.Events() // connect

	failing := new(MockProvider)
	failing.On("Accounts").Return([]string{}, errors.New("connection refused"))
	monitor.provider = failing
	monitor.poll(context.Background())

	// one error event, then a disconnect after the retries are exhausted
	event := <-monitor.Events()
	assert.Equal(t, EventError, event.Type)
	assert.Error(t, event.Err)

	event = <-monitor.Events()
	assert.Equal(t, EventDisconnect, event.Type)
	assert.False(t, monitor.Status().Connected)

	// Accounts was called once by the poll and once per retry
	failing.AssertNumberOfCalls(t, "Accounts", 3)
}

func TestMonitorRecoversDuringReconnect(t *testing.T) {
	provider := connectedProvider("0xabc", 1, 2.5)
	monitor := NewMonitor(provider, testWalletConfig(), zap.NewNop())
	monitor.poll(context.Background())
	<-monitor.Events() // connect

	recovering := new(MockProvider)
	recovering.On("Accounts").Return([]string{}, errors.New("transient")).Once()
	recovering.On("Accounts").Return([]string{"0xabc"}, nil)
	recovering.On("ChainID").Return(int64(1), nil)
	recovering.On("Balance", "0xabc").Return(2.5, nil)
	monitor.provider = recovering
	monitor.poll(context.Background())

	event := <-monitor.Events()
	assert.Equal(t, EventError, event.Type)
	assert.True(t, monitor.Status().Connected, "recovered within the retry budget")
}
