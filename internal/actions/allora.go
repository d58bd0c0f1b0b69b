package actions

import (
	"context"

	"AgentKit-Chain/internal/kit"
	"AgentKit-Chain/internal/schema"
)

const (
	GetAllTopics          = "GET_ALL_TOPICS"
	GetPricePrediction    = "GET_PRICE_PREDICTION"
	GetInferenceByTopicID = "GET_INFERENCE_BY_TOPIC_ID"
)

// AlloraActions returns the Allora inference actions keyed by name.
func AlloraActions() map[string]Action {
	return map[string]Action{
		GetAllTopics: {
			Name:        GetAllTopics,
			Description: "Get all topics from Allora's API",
			Schema:      schema.Fields{},
			Handler:     getAllTopics,
		},
		GetPricePrediction: {
			Name:        GetPricePrediction,
			Description: "Fetch a future price prediction for BTC or ETH for a given timeframe from the Allora Network.",
			Schema: schema.Fields{
				{
					Name:        "asset",
					Kind:        schema.String,
					Required:    true,
					Description: "Crypto asset symbol (BTC or ETH).",
					Enum:        kit.TokenNames(),
				},
				{
					Name:        "timeframe",
					Kind:        schema.String,
					Required:    true,
					Description: "Prediction timeframe (FIVE_MINUTES or EIGHT_HOURS).",
					Enum:        kit.TimeframeNames(),
				},
				{
					Name:        "signature_format",
					Kind:        schema.String,
					Description: "Blockchain signature format (default: ETHEREUM_SEPOLIA).",
					Enum:        kit.SignatureFormatNames(),
					Default:     kit.DefaultSignatureFormat,
				},
			},
			Handler: getPricePrediction,
		},
		GetInferenceByTopicID: {
			Name:        GetInferenceByTopicID,
			Description: "Fetch inference data for a specific topic ID.",
			Schema: schema.Fields{
				{Name: "topic_id", Kind: schema.Integer, Required: true, Description: "Topic ID to fetch inference data for."},
			},
			Handler: getInferenceByTopicID,
		},
	}
}

func getAllTopics(ctx context.Context, k kit.InferenceProvider, _ schema.Params) (any, error) {
	return k.GetAllTopics(ctx)
}

func getPricePrediction(ctx context.Context, k kit.InferenceProvider, params schema.Params) (any, error) {
	assetName, err := params.String("asset")
	if err != nil {
		return nil, err
	}
	timeframeName, err := params.String("timeframe")
	if err != nil {
		return nil, err
	}
	formatName, err := params.StringOr("signature_format", kit.DefaultSignatureFormat)
	if err != nil {
		return nil, err
	}

	asset, err := kit.ParsePriceInferenceToken(assetName)
	if err != nil {
		return nil, err
	}
	timeframe, err := kit.ParsePriceInferenceTimeframe(timeframeName)
	if err != nil {
		return nil, err
	}
	format, err := kit.ParseSignatureFormat(formatName)
	if err != nil {
		return nil, err
	}
	return k.GetPricePrediction(ctx, asset, timeframe, format)
}

func getInferenceByTopicID(ctx context.Context, k kit.InferenceProvider, params schema.Params) (any, error) {
	topicID, err := params.Int("topic_id")
	if err != nil {
		return nil, err
	}
	return k.GetInferenceByTopicID(ctx, topicID)
}
