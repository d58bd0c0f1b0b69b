package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "AgentKit-Chain/internal/errors"
)

var tradeFields = Fields{
	{Name: "token", Kind: String, Required: true},
	{Name: "side", Kind: String, Required: true},
	{Name: "collateralUsd", Kind: Number, Required: true},
	{Name: "leverage", Kind: Number, Required: true},
	{Name: "note", Kind: String},
}

func TestValidateAcceptsMatchingPayload(t *testing.T) {
	params, err := Decode(`{"token":"SOL","side":"buy","collateralUsd":100.0,"leverage":5}`)
	require.NoError(t, err)
	assert.NoError(t, tradeFields.Validate(params))
}

func TestValidateMissingRequiredField(t *testing.T) {
	params, err := Decode(`{"token":"SOL","collateralUsd":1,"leverage":2}`)
	require.NoError(t, err)

	err = tradeFields.Validate(params)
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeValidationFailed, xerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "missing required field: side")
}

func TestValidateWrongType(t *testing.T) {
	params, err := Decode(`{"token":"SOL","side":"buy","collateralUsd":"100","leverage":5}`)
	require.NoError(t, err)

	err = tradeFields.Validate(params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid type for field collateralUsd: expected number, got string")
}

func TestValidateNullTreatedAsMissing(t *testing.T) {
	params, err := Decode(`{"token":null,"side":"buy","collateralUsd":1,"leverage":1}`)
	require.NoError(t, err)
	assert.Error(t, tradeFields.Validate(params))
}

func TestValidateOptionalFieldTypeStillChecked(t *testing.T) {
	params := map[string]any{"token": "SOL", "side": "buy", "collateralUsd": 1.0, "leverage": 1.0, "note": true}
	err := tradeFields.Validate(params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "note")
}

func TestIntegerKind(t *testing.T) {
	fields := Fields{{Name: "topic_id", Kind: Integer, Required: true}}

	assert.NoError(t, fields.Validate(map[string]any{"topic_id": float64(14)}))
	assert.Error(t, fields.Validate(map[string]any{"topic_id": 14.5}))
	assert.Error(t, fields.Validate(map[string]any{"topic_id": "14"}))
	assert.Error(t, fields.Validate(map[string]any{"topic_id": 1e20}))
	assert.Error(t, fields.Validate(map[string]any{"topic_id": -1e20}))

	_, err := Params{"topic_id": 1e20}.Int("topic_id")
	assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err))
}

func TestDecodeErrors(t *testing.T) {
	for _, input := range []string{"{", "[1,2]", "null", `"text"`, `{"a":1} {"b":2}`, `{"token":"SOL","side":"buy"}}`, `{"a":1}]`} {
		_, err := Decode(input)
		require.Error(t, err, input)
		assert.Equal(t, xerrors.CodeDecodeFailed, xerrors.CodeOf(err), input)
	}

	params, err := Decode("   ")
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestJSONSchema(t *testing.T) {
	fields := Fields{
		{Name: "asset", Kind: String, Required: true, Enum: []string{"BTC", "ETH"}},
		{Name: "signature_format", Kind: String, Default: "ETHEREUM_SEPOLIA"},
	}
	out := fields.JSONSchema()

	assert.Equal(t, "object", out["type"])
	assert.Equal(t, []string{"asset"}, out["required"])
	props := out["properties"].(map[string]any)
	asset := props["asset"].(map[string]any)
	assert.Equal(t, []string{"BTC", "ETH"}, asset["enum"])
	format := props["signature_format"].(map[string]any)
	assert.Equal(t, "ETHEREUM_SEPOLIA", format["default"])

	_, hasRequired := Fields{}.JSONSchema()["required"]
	assert.False(t, hasRequired)
}

func TestParamsAccessors(t *testing.T) {
	p := Params{"asset": "BTC", "topic_id": float64(3), "lev": 2.5}

	s, err := p.String("asset")
	require.NoError(t, err)
	assert.Equal(t, "BTC", s)

	_, err = p.String("timeframe")
	assert.Equal(t, xerrors.CodeMissingParameter, xerrors.CodeOf(err))

	def, err := p.StringOr("signature_format", "ETHEREUM_SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, "ETHEREUM_SEPOLIA", def)

	n, err := p.Int("topic_id")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = p.Int("lev")
	assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err))

	f, err := p.Float("lev")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)
}
