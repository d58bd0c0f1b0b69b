package kit

import "context"

// FlashOpenParams carries the arguments of a leveraged flash trade.
type FlashOpenParams struct {
	Token         string  `json:"token"`
	Side          string  `json:"side"`
	CollateralUSD float64 `json:"collateral_usd"`
	Leverage      float64 `json:"leverage"`
}

// FlashCloseParams identifies the flash position to close.
type FlashCloseParams struct {
	Token string `json:"token"`
	Side  string `json:"side"`
}

// Trade captures the transaction details reported by the agent kit.
type Trade struct {
	Signature string         `json:"signature"`
	Token     string         `json:"token,omitempty"`
	Side      string         `json:"side,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Topic describes an Allora network topic.
type Topic struct {
	TopicID                int    `json:"topic_id"`
	TopicName              string `json:"topic_name"`
	Description            string `json:"description,omitempty"`
	EpochLength            int64  `json:"epoch_length"`
	GroundTruthLag         int64  `json:"ground_truth_lag"`
	LossMethod             string `json:"loss_method"`
	WorkerSubmissionWindow int64  `json:"worker_submission_window"`
	WorkerCount            int    `json:"worker_count"`
	ReputerCount           int    `json:"reputer_count"`
	TotalStaked            string `json:"total_staked"`
	TotalEmissions         string `json:"total_emissions"`
	TotalReputation        string `json:"total_reputation"`
	IsActive               bool   `json:"is_active"`
	UpdatedAt              string `json:"updated_at"`
}

// InferenceData is the payload of a signed network inference.
type InferenceData struct {
	NetworkInference           string   `json:"network_inference"`
	NetworkInferenceNormalized string   `json:"network_inference_normalized"`
	ConfidenceIntervalPercents []string `json:"confidence_interval_percentiles"`
	ConfidenceIntervalValues   []string `json:"confidence_interval_values"`
	TopicID                    string   `json:"topic_id"`
	Timestamp                  int64    `json:"timestamp"`
	ExtraData                  string   `json:"extra_data,omitempty"`
}

// Inference is a network inference together with its signature envelope.
type Inference struct {
	SignatureFormat string        `json:"signature_format"`
	Signature       string        `json:"signature"`
	InferenceData   InferenceData `json:"inference_data"`
}

// FaucetRequester requests test funds for the kit's wallet.
type FaucetRequester interface {
	RequestFaucetFunds(ctx context.Context) (string, error)
}

// FlashTrader opens and closes leveraged flash trades.
type FlashTrader interface {
	FlashOpenTrade(ctx context.Context, params FlashOpenParams) (*Trade, error)
	FlashCloseTrade(ctx context.Context, params FlashCloseParams) (*Trade, error)
}

// InferenceProvider queries the Allora prediction network.
type InferenceProvider interface {
	GetAllTopics(ctx context.Context) ([]Topic, error)
	GetPricePrediction(ctx context.Context, asset PriceInferenceToken, timeframe PriceInferenceTimeframe, format SignatureFormat) (*Inference, error)
	GetInferenceByTopicID(ctx context.Context, topicID int) (*Inference, error)
}

// Kit is the full capability surface consumed by tools and actions. The
// implementation, including signing and chain access, lives outside this
// repository.
type Kit interface {
	FaucetRequester
	FlashTrader
	InferenceProvider
	Close()
}
