package tools

import (
	"context"
	"time"

	"AgentKit-Chain/internal/kit"
	"AgentKit-Chain/internal/schema"
)

const (
	openTradeErrorPrefix  = "Error opening flash trade: "
	closeTradeErrorPrefix = "Error closing flash trade: "
)

var (
	flashOpenFields = schema.Fields{
		{Name: "token", Kind: schema.String, Required: true, Description: "the trading token"},
		{Name: "side", Kind: schema.String, Required: true, Description: "either 'buy' or 'sell'"},
		{Name: "collateralUsd", Kind: schema.Number, Required: true, Description: "collateral amount in USD"},
		{Name: "leverage", Kind: schema.Number, Required: true, Description: "leverage multiplier"},
	}
	flashCloseFields = schema.Fields{
		{Name: "token", Kind: schema.String, Required: true, Description: "the trading token"},
		{Name: "side", Kind: schema.String, Required: true, Description: "either 'buy' or 'sell'"},
	}
)

const flashOpenDescription = `Opens a flash trade using the agent kit.

Input: a JSON string with:
{
    "token": "string, the trading token",
    "side": "string, either 'buy' or 'sell'",
    "collateralUsd": "number, collateral amount in USD",
    "leverage": "number, leverage multiplier"
}
Output:
{
    "transaction": "object, transaction details or null",
    "message": "string, Success or the error"
}`

const flashCloseDescription = `Closes a flash trade using the agent kit.

Input: a JSON string with:
{
    "token": "string, the trading token",
    "side": "string, either 'buy' or 'sell'"
}
Output:
{
    "transaction": "object, transaction details or null",
    "message": "string, Success or the error"
}`

// FlashOpenTradeTool opens a leveraged flash trade.
type FlashOpenTradeTool struct {
	base
	kit kit.FlashTrader
}

// NewFlashOpenTradeTool binds the open-trade tool to k.
func NewFlashOpenTradeTool(k kit.FlashTrader, opts ...Option) *FlashOpenTradeTool {
	return &FlashOpenTradeTool{
		base: newBase("flash_open_trade", flashOpenDescription, flashOpenFields, opts),
		kit:  k,
	}
}

// Run decodes and validates input, then opens the trade.
func (t *FlashOpenTradeTool) Run(ctx context.Context, input string) Envelope {
	started := time.Now()
	var trade *kit.Trade
	err := guard(func() error {
		params, err := t.decode(input)
		if err != nil {
			return err
		}
		req, err := openParams(params)
		if err != nil {
			return err
		}
		if t.kit == nil {
			return notConfigured()
		}
		trade, err = t.kit.FlashOpenTrade(ctx, req)
		return err
	})
	t.finish(ctx, input, started, err)
	if err != nil {
		return transactionFailure(openTradeErrorPrefix, err)
	}
	return TransactionEnvelope{Transaction: trade, Message: successMessage}
}

// Call implements tools.Tool. The returned error is always nil.
func (t *FlashOpenTradeTool) Call(ctx context.Context, input string) (string, error) {
	return Encode(t.Run(ctx, input)), nil
}

// FlashCloseTradeTool closes a flash trade.
type FlashCloseTradeTool struct {
	base
	kit kit.FlashTrader
}

// NewFlashCloseTradeTool binds the close-trade tool to k.
func NewFlashCloseTradeTool(k kit.FlashTrader, opts ...Option) *FlashCloseTradeTool {
	return &FlashCloseTradeTool{
		base: newBase("flash_close_trade", flashCloseDescription, flashCloseFields, opts),
		kit:  k,
	}
}

// Run decodes and validates input, then closes the trade.
func (t *FlashCloseTradeTool) Run(ctx context.Context, input string) Envelope {
	started := time.Now()
	var trade *kit.Trade
	err := guard(func() error {
		params, err := t.decode(input)
		if err != nil {
			return err
		}
		req, err := closeParams(params)
		if err != nil {
			return err
		}
		if t.kit == nil {
			return notConfigured()
		}
		trade, err = t.kit.FlashCloseTrade(ctx, req)
		return err
	})
	t.finish(ctx, input, started, err)
	if err != nil {
		return transactionFailure(closeTradeErrorPrefix, err)
	}
	return TransactionEnvelope{Transaction: trade, Message: successMessage}
}

// Call implements tools.Tool. The returned error is always nil.
func (t *FlashCloseTradeTool) Call(ctx context.Context, input string) (string, error) {
	return Encode(t.Run(ctx, input)), nil
}

func openParams(p schema.Params) (kit.FlashOpenParams, error) {
	var (
		req kit.FlashOpenParams
		err error
	)
	if req.Token, err = p.String("token"); err != nil {
		return req, err
	}
	if req.Side, err = p.String("side"); err != nil {
		return req, err
	}
	if req.CollateralUSD, err = p.Float("collateralUsd"); err != nil {
		return req, err
	}
	if req.Leverage, err = p.Float("leverage"); err != nil {
		return req, err
	}
	return req, nil
}

func closeParams(p schema.Params) (kit.FlashCloseParams, error) {
	var (
		req kit.FlashCloseParams
		err error
	)
	if req.Token, err = p.String("token"); err != nil {
		return req, err
	}
	if req.Side, err = p.String("side"); err != nil {
		return req, err
	}
	return req, nil
}
