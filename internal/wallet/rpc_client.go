package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"trading-dashboard-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no RPC endpoint is configured. Consumers
// surface this as the "provider not installed" state and do not retry.
var ErrNotConfigured = errors.New("wallet provider not configured")

// weiPerEther converts eth_getBalance results to ether.
var weiPerEther = new(big.Float).SetFloat64(1e18)

// Provider is the wallet capability the dashboard consumes: account listing,
// chain identification and balance queries. All calls are fallible,
// idempotent reads bounded by the caller's context.
type Provider interface {
	Accounts(ctx context.Context) ([]string, error)
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (int64, error)
	Balance(ctx context.Context, address string) (float64, error)
}

// Client is a JSON-RPC client for an Ethereum node or wallet RPC endpoint.
// It implements the Provider interface.
type Client struct {
	client    *resty.Client
	logger    *zap.Logger
	limiter   *rate.Limiter
	timeout   time.Duration
	retryBase time.Duration // unit of the exponential backoff
	nextID    atomic.Int64
}

// ensure Client implements the interface
var _ Provider = (*Client)(nil)

// NewClient creates a wallet RPC client from the configuration.
func NewClient(cfg *config.Wallet, logger *zap.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, ErrNotConfigured
	}

	client := resty.New().SetBaseURL(cfg.RPCURL)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:    client,
		logger:    logger,
		limiter:   limiter,
		timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
		retryBase: time.Second,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result"`
	Error   *rpcError `json:"error"`
	ID      int64     `json:"id"`
}

// call executes one JSON-RPC request with rate limiting and retry on
// transient failures.
func (c *Client) call(ctx context.Context, method string, params []any) (any, error) {
	if params == nil {
		params = []any{}
	}
	body := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing RPC call", zap.String("method", method))
		var result rpcResponse
		resp, err = c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&result).
			Post("")

		if err == nil && !resp.IsError() {
			if result.Error != nil {
				return nil, fmt.Errorf("rpc error %d calling %s: %s", result.Error.Code, method, result.Error.Message)
			}
			return result.Result, nil
		}

		// Retry server-side and transport failures; anything else is final.
		shouldRetry := true
		if resp != nil && err == nil {
			code := resp.StatusCode()
			shouldRetry = code == http.StatusTooManyRequests || code >= 500
			if !shouldRetry {
				return nil, fmt.Errorf("rpc call %s failed with status %s", method, resp.Status())
			}
		}

		retryAfter := time.Duration(math.Pow(2, float64(i))) * c.retryBase
		c.logger.Warn("RPC call failed, retrying...",
			zap.String("method", method),
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err))

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("rpc call %s failed after %d attempts: %w", method, maxRetries, err)
	}
	// Retries exhausted on HTTP errors, so there is no transport error to wrap.
	return nil, fmt.Errorf("rpc call %s failed after %d attempts, last status %s", method, maxRetries, resp.Status())
}

// Accounts returns the addresses the endpoint already exposes.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	result, err := c.call(ctx, "eth_accounts", nil)
	if err != nil {
		return nil, err
	}
	return toAddressList(result)
}

// RequestAccounts asks the endpoint to expose its accounts. Against a plain
// node this behaves like Accounts; wallet RPC endpoints may prompt the user.
func (c *Client) RequestAccounts(ctx context.Context) ([]string, error) {
	result, err := c.call(ctx, "eth_requestAccounts", nil)
	if err != nil {
		return nil, err
	}
	return toAddressList(result)
}

// ChainID returns the numeric chain id of the connected network.
func (c *Client) ChainID(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_chainId", nil)
	if err != nil {
		return 0, err
	}
	hex, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected eth_chainId result type %T", result)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(hex, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse chain id %q: %w", hex, err)
	}
	return id, nil
}

// Balance returns the ether balance of the given address at the latest block.
func (c *Client) Balance(ctx context.Context, address string) (float64, error) {
	result, err := c.call(ctx, "eth_getBalance", []any{address, "latest"})
	if err != nil {
		return 0, err
	}
	hex, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected eth_getBalance result type %T", result)
	}

	wei, ok := new(big.Int).SetString(strings.TrimPrefix(hex, "0x"), 16)
	if !ok {
		return 0, fmt.Errorf("failed to parse balance %q", hex)
	}
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther).Float64()
	return ether, nil
}

func toAddressList(result any) ([]string, error) {
	raw, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected accounts result type %T", result)
	}
	addresses := make([]string, 0, len(raw))
	for _, a := range raw {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected account entry type %T", a)
		}
		addresses = append(addresses, s)
	}
	return addresses, nil
}
