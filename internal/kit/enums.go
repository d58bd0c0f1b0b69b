package kit

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/params"

	xerrors "AgentKit-Chain/internal/errors"
)

// PriceInferenceToken is an asset supported by Allora price predictions.
type PriceInferenceToken int

const (
	TokenBTC PriceInferenceToken = iota + 1
	TokenETH
)

var tokenNames = map[string]PriceInferenceToken{
	"BTC": TokenBTC,
	"ETH": TokenETH,
}

// ParsePriceInferenceToken translates the wire name of an asset.
func ParsePriceInferenceToken(name string) (PriceInferenceToken, error) {
	if token, ok := tokenNames[name]; ok {
		return token, nil
	}
	return 0, lookupError("PriceInferenceToken", name)
}

func (t PriceInferenceToken) String() string { return nameOf(tokenNames, t) }

// PriceInferenceTimeframe is a prediction horizon.
type PriceInferenceTimeframe int

const (
	TimeframeFiveMinutes PriceInferenceTimeframe = iota + 1
	TimeframeEightHours
)

var timeframeNames = map[string]PriceInferenceTimeframe{
	"FIVE_MINUTES": TimeframeFiveMinutes,
	"EIGHT_HOURS":  TimeframeEightHours,
}

// ParsePriceInferenceTimeframe translates the wire name of a timeframe.
func ParsePriceInferenceTimeframe(name string) (PriceInferenceTimeframe, error) {
	if tf, ok := timeframeNames[name]; ok {
		return tf, nil
	}
	return 0, lookupError("PriceInferenceTimeframe", name)
}

func (t PriceInferenceTimeframe) String() string { return nameOf(timeframeNames, t) }

// Value is the timeframe as accepted by the Allora consumer API.
func (t PriceInferenceTimeframe) Value() string {
	switch t {
	case TimeframeFiveMinutes:
		return "5m"
	case TimeframeEightHours:
		return "8h"
	default:
		return ""
	}
}

// SignatureFormat selects the chain the inference signature targets.
type SignatureFormat int

const (
	SignatureEthereumSepolia SignatureFormat = iota + 1
	SignatureEthereumMainnet
)

// DefaultSignatureFormat is used when a caller does not pick one.
const DefaultSignatureFormat = "ETHEREUM_SEPOLIA"

var signatureNames = map[string]SignatureFormat{
	"ETHEREUM_SEPOLIA": SignatureEthereumSepolia,
	"ETHEREUM_MAINNET": SignatureEthereumMainnet,
}

// ParseSignatureFormat translates the wire name of a signature format.
func ParseSignatureFormat(name string) (SignatureFormat, error) {
	if f, ok := signatureNames[name]; ok {
		return f, nil
	}
	return 0, lookupError("SignatureFormat", name)
}

func (f SignatureFormat) String() string { return nameOf(signatureNames, f) }

// ChainID returns the EVM chain id the signature format is bound to.
func (f SignatureFormat) ChainID() *big.Int {
	switch f {
	case SignatureEthereumSepolia:
		return new(big.Int).Set(params.SepoliaChainConfig.ChainID)
	case SignatureEthereumMainnet:
		return new(big.Int).Set(params.MainnetChainConfig.ChainID)
	default:
		return nil
	}
}

// TokenNames lists the accepted asset names in stable order.
func TokenNames() []string { return sortedKeys(tokenNames) }

// TimeframeNames lists the accepted timeframe names in stable order.
func TimeframeNames() []string { return sortedKeys(timeframeNames) }

// SignatureFormatNames lists the accepted signature formats in stable order.
func SignatureFormatNames() []string { return sortedKeys(signatureNames) }

func lookupError(enum, name string) error {
	return xerrors.Newf(xerrors.CodeEnumLookup, "unknown %s %q", enum, name)
}

func nameOf[T comparable](table map[string]T, value T) string {
	for name, v := range table {
		if v == value {
			return name
		}
	}
	return "UNKNOWN"
}

func sortedKeys[T any](table map[string]T) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
