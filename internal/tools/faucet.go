package tools

import (
	"context"
	"time"

	"AgentKit-Chain/internal/kit"
)

const faucetSuccessMessage = "Faucet funds requested successfully"

// FaucetTool requests test funds for the agent kit wallet.
type FaucetTool struct {
	base
	kit kit.FaucetRequester
}

// NewFaucetTool binds the faucet tool to k.
func NewFaucetTool(k kit.FaucetRequester, opts ...Option) *FaucetTool {
	return &FaucetTool{
		base: newBase("solana_request_funds",
			"Request test funds from a Solana faucet. Takes no input.",
			nil, opts),
		kit: k,
	}
}

// Run ignores input and returns a StatusEnvelope.
func (t *FaucetTool) Run(ctx context.Context, input string) Envelope {
	started := time.Now()
	var result string
	err := guard(func() error {
		if t.kit == nil {
			return notConfigured()
		}
		var err error
		result, err = t.kit.RequestFaucetFunds(ctx)
		return err
	})
	t.finish(ctx, input, started, err)
	if err != nil {
		return statusFailure(err)
	}
	return StatusEnvelope{Status: statusSuccess, Message: faucetSuccessMessage, Result: result}
}

// Call implements tools.Tool. The returned error is always nil.
func (t *FaucetTool) Call(ctx context.Context, input string) (string, error) {
	return Encode(t.Run(ctx, input)), nil
}
