package kit

import (
	"testing"

	xerrors "AgentKit-Chain/internal/errors"
)

func TestParseEnums(t *testing.T) {
	token, err := ParsePriceInferenceToken("ETH")
	if err != nil || token != TokenETH {
		t.Fatalf("unexpected token %v err %v", token, err)
	}
	tf, err := ParsePriceInferenceTimeframe("EIGHT_HOURS")
	if err != nil || tf != TimeframeEightHours {
		t.Fatalf("unexpected timeframe %v err %v", tf, err)
	}
	if tf.Value() != "8h" {
		t.Fatalf("unexpected timeframe value %q", tf.Value())
	}
	format, err := ParseSignatureFormat(DefaultSignatureFormat)
	if err != nil || format != SignatureEthereumSepolia {
		t.Fatalf("unexpected format %v err %v", format, err)
	}
}

func TestParseEnumsRejectUnknown(t *testing.T) {
	cases := []func() error{
		func() error { _, err := ParsePriceInferenceToken("DOGE"); return err },
		func() error { _, err := ParsePriceInferenceToken("btc"); return err },
		func() error { _, err := ParsePriceInferenceTimeframe("ONE_DAY"); return err },
		func() error { _, err := ParseSignatureFormat(""); return err },
	}
	for i, fn := range cases {
		err := fn()
		if err == nil {
			t.Fatalf("case %d: expected lookup error", i)
		}
		if code := xerrors.CodeOf(err); code != xerrors.CodeEnumLookup {
			t.Fatalf("case %d: expected %s, got %s", i, xerrors.CodeEnumLookup, code)
		}
	}
}

func TestSignatureFormatChainID(t *testing.T) {
	if id := SignatureEthereumSepolia.ChainID(); id == nil || id.Int64() != 11155111 {
		t.Fatalf("unexpected sepolia chain id %v", id)
	}
	if id := SignatureEthereumMainnet.ChainID(); id == nil || id.Int64() != 1 {
		t.Fatalf("unexpected mainnet chain id %v", id)
	}
	if id := SignatureFormat(0).ChainID(); id != nil {
		t.Fatalf("expected nil chain id for unknown format, got %v", id)
	}
}

func TestEnumNamesRoundTrip(t *testing.T) {
	for _, name := range TokenNames() {
		token, err := ParsePriceInferenceToken(name)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if token.String() != name {
			t.Fatalf("expected %s, got %s", name, token.String())
		}
	}
	if got := SignatureFormatNames(); len(got) != 2 || got[0] != "ETHEREUM_MAINNET" {
		t.Fatalf("unexpected signature names %v", got)
	}
}
