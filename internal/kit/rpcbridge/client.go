package rpcbridge

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/kit"
)

// Namespace is the JSON-RPC namespace served by agent-kit gateways.
const Namespace = "agentkit"

// Config describes how to reach an agent-kit gateway.
type Config struct {
	Name     string
	Endpoint string
	Timeout  time.Duration
	Headers  map[string]string
	Notes    string
}

// PricePredictionRequest is the argument of agentkit_getPricePrediction.
type PricePredictionRequest struct {
	Asset           string       `json:"asset"`
	Timeframe       string       `json:"timeframe"`
	SignatureFormat string       `json:"signature_format"`
	ChainID         *hexutil.Big `json:"chain_id,omitempty"`
}

// Client implements kit.Kit by forwarding every call to a gateway over
// JSON-RPC. The gateway owns wallets, signing and chain access.
type Client struct {
	name      string
	notes     string
	timeout   time.Duration
	rpcClient *gethrpc.Client
	mu        sync.RWMutex
}

// NewClient dials the configured gateway. HTTP endpoints connect lazily;
// ws:// and ipc endpoints connect immediately.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "agent kit endpoint is empty")
	}

	var opts []gethrpc.ClientOption
	if len(cfg.Headers) > 0 {
		header := http.Header{}
		for k, v := range cfg.Headers {
			header.Set(k, v)
		}
		opts = append(opts, gethrpc.WithHeaders(header))
	}

	rpcClient, err := gethrpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, fmt.Sprintf("dial agent kit %s", endpoint))
	}
	return &Client{
		name:      cfg.Name,
		notes:     cfg.Notes,
		timeout:   cfg.Timeout,
		rpcClient: rpcClient,
	}, nil
}

// NewInProcClient attaches to an in-process JSON-RPC server. Useful for tests
// and for embedding a gateway in the same binary.
func NewInProcClient(name string, server *gethrpc.Server) *Client {
	return &Client{
		name:      name,
		notes:     "in-process gateway",
		rpcClient: gethrpc.DialInProc(server),
	}
}

// Name returns the configured kit name.
func (c *Client) Name() string { return c.name }

// Notes returns the free-form description from the configuration.
func (c *Client) Notes() string { return c.notes }

// Close releases the underlying connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

// RequestFaucetFunds asks the gateway to request faucet funds for its wallet
// and returns the resulting transaction signature.
func (c *Client) RequestFaucetFunds(ctx context.Context) (string, error) {
	var signature string
	if err := c.call(ctx, &signature, "requestFaucetFunds"); err != nil {
		return "", err
	}
	return signature, nil
}

// FlashOpenTrade opens a leveraged flash trade through the gateway.
func (c *Client) FlashOpenTrade(ctx context.Context, params kit.FlashOpenParams) (*kit.Trade, error) {
	var trade kit.Trade
	if err := c.call(ctx, &trade, "flashOpenTrade", params); err != nil {
		return nil, err
	}
	return &trade, nil
}

// FlashCloseTrade closes a flash trade through the gateway.
func (c *Client) FlashCloseTrade(ctx context.Context, params kit.FlashCloseParams) (*kit.Trade, error) {
	var trade kit.Trade
	if err := c.call(ctx, &trade, "flashCloseTrade", params); err != nil {
		return nil, err
	}
	return &trade, nil
}

// GetAllTopics lists the Allora network topics.
func (c *Client) GetAllTopics(ctx context.Context) ([]kit.Topic, error) {
	var topics []kit.Topic
	if err := c.call(ctx, &topics, "getAllTopics"); err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []kit.Topic{}
	}
	return topics, nil
}

// GetPricePrediction fetches a signed price prediction.
func (c *Client) GetPricePrediction(ctx context.Context, asset kit.PriceInferenceToken, timeframe kit.PriceInferenceTimeframe, format kit.SignatureFormat) (*kit.Inference, error) {
	req := PricePredictionRequest{
		Asset:           asset.String(),
		Timeframe:       timeframe.String(),
		SignatureFormat: format.String(),
	}
	if id := format.ChainID(); id != nil {
		req.ChainID = (*hexutil.Big)(id)
	}
	var inference kit.Inference
	if err := c.call(ctx, &inference, "getPricePrediction", req); err != nil {
		return nil, err
	}
	return &inference, nil
}

// GetInferenceByTopicID fetches the latest inference of a topic.
func (c *Client) GetInferenceByTopicID(ctx context.Context, topicID int) (*kit.Inference, error) {
	var inference kit.Inference
	if err := c.call(ctx, &inference, "getInferenceByTopicID", topicID); err != nil {
		return nil, err
	}
	return &inference, nil
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	c.mu.RLock()
	rpcClient := c.rpcClient
	c.mu.RUnlock()
	if rpcClient == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "agent kit client is closed")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := rpcClient.CallContext(ctx, result, Namespace+"_"+method, args...); err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) {
			return xerrors.Wrap(xerrors.CodeTimeout, err, method)
		}
		// 网关返回的 JSON-RPC 错误说明请求已被处理，重试没有意义。
		var rpcErr gethrpc.Error
		if stdErrors.As(err, &rpcErr) {
			return xerrors.Wrap(xerrors.CodeDelegateFailure, err, method, xerrors.WithRetryable(false))
		}
		return xerrors.Wrap(xerrors.CodeDelegateFailure, err, method)
	}
	return nil
}

var _ kit.Kit = (*Client)(nil)
