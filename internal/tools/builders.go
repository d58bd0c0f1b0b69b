package tools

import "AgentKit-Chain/internal/kit"

// GetFaucetTools returns the faucet tools bound to k.
func GetFaucetTools(k kit.FaucetRequester, opts ...Option) []Tool {
	return []Tool{
		NewFaucetTool(k, opts...),
	}
}

// GetFlashTools returns the flash trading tools bound to k.
func GetFlashTools(k kit.FlashTrader, opts ...Option) []Tool {
	return []Tool{
		NewFlashOpenTradeTool(k, opts...),
		NewFlashCloseTradeTool(k, opts...),
	}
}

// All returns every tool bound to k.
func All(k kit.Kit, opts ...Option) []Tool {
	return append(GetFaucetTools(k, opts...), GetFlashTools(k, opts...)...)
}
