// Package kittest provides an in-memory kit.Kit for tests.
package kittest

import (
	"context"
	"sync"

	"AgentKit-Chain/internal/kit"
)

// Fake records every call and answers from its function fields. Unset
// fields return canned values.
type Fake struct {
	FaucetFn     func(ctx context.Context) (string, error)
	OpenFn       func(ctx context.Context, p kit.FlashOpenParams) (*kit.Trade, error)
	CloseFn      func(ctx context.Context, p kit.FlashCloseParams) (*kit.Trade, error)
	TopicsFn     func(ctx context.Context) ([]kit.Topic, error)
	PredictionFn func(ctx context.Context, asset kit.PriceInferenceToken, tf kit.PriceInferenceTimeframe, f kit.SignatureFormat) (*kit.Inference, error)
	InferenceFn  func(ctx context.Context, topicID int) (*kit.Inference, error)

	mu     sync.Mutex
	calls  []string
	closed bool
}

// Calls returns the names of the methods invoked so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *Fake) RequestFaucetFunds(ctx context.Context) (string, error) {
	f.record("RequestFaucetFunds")
	if f.FaucetFn != nil {
		return f.FaucetFn(ctx)
	}
	return "faucet-signature", nil
}

func (f *Fake) FlashOpenTrade(ctx context.Context, p kit.FlashOpenParams) (*kit.Trade, error) {
	f.record("FlashOpenTrade")
	if f.OpenFn != nil {
		return f.OpenFn(ctx, p)
	}
	return &kit.Trade{Signature: "open-signature", Token: p.Token, Side: p.Side}, nil
}

func (f *Fake) FlashCloseTrade(ctx context.Context, p kit.FlashCloseParams) (*kit.Trade, error) {
	f.record("FlashCloseTrade")
	if f.CloseFn != nil {
		return f.CloseFn(ctx, p)
	}
	return &kit.Trade{Signature: "close-signature", Token: p.Token, Side: p.Side}, nil
}

func (f *Fake) GetAllTopics(ctx context.Context) ([]kit.Topic, error) {
	f.record("GetAllTopics")
	if f.TopicsFn != nil {
		return f.TopicsFn(ctx)
	}
	return []kit.Topic{{TopicID: 1, TopicName: "ETH 10min Prediction", IsActive: true}}, nil
}

func (f *Fake) GetPricePrediction(ctx context.Context, asset kit.PriceInferenceToken, tf kit.PriceInferenceTimeframe, format kit.SignatureFormat) (*kit.Inference, error) {
	f.record("GetPricePrediction")
	if f.PredictionFn != nil {
		return f.PredictionFn(ctx, asset, tf, format)
	}
	return &kit.Inference{
		SignatureFormat: format.String(),
		Signature:       "0xprediction",
		InferenceData:   kit.InferenceData{NetworkInference: "100", TopicID: "14"},
	}, nil
}

func (f *Fake) GetInferenceByTopicID(ctx context.Context, topicID int) (*kit.Inference, error) {
	f.record("GetInferenceByTopicID")
	if f.InferenceFn != nil {
		return f.InferenceFn(ctx, topicID)
	}
	return &kit.Inference{Signature: "0xinference", InferenceData: kit.InferenceData{NetworkInference: "42"}}, nil
}

func (f *Fake) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

var _ kit.Kit = (*Fake)(nil)
