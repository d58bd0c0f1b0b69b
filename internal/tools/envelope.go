package tools

import (
	"encoding/json"

	xerrors "AgentKit-Chain/internal/errors"
)

// Envelope is the fixed-shape result of a tool invocation.
type Envelope interface {
	Succeeded() bool
}

const (
	statusSuccess = "success"
	statusError   = "error"

	successMessage = "Success"

	// unknownErrorCode is reported for failures that carry no error code.
	unknownErrorCode = "UNKNOWN_ERROR"
)

// StatusEnvelope is returned by status-style tools such as the faucet.
type StatusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Succeeded reports whether the status is "success".
func (e StatusEnvelope) Succeeded() bool { return e.Status == statusSuccess }

// TransactionEnvelope is returned by trading tools. Transaction is null when
// the invocation failed.
type TransactionEnvelope struct {
	Transaction any    `json:"transaction"`
	Message     string `json:"message"`
}

// Succeeded reports whether the message is the success marker.
func (e TransactionEnvelope) Succeeded() bool { return e.Message == successMessage }

func statusFailure(err error) StatusEnvelope {
	return StatusEnvelope{Status: statusError, Message: err.Error(), Code: errorCode(err)}
}

func transactionFailure(prefix string, err error) TransactionEnvelope {
	return TransactionEnvelope{Transaction: nil, Message: prefix + err.Error()}
}

func errorCode(err error) string {
	if coded, ok := xerrors.From(err); ok {
		return string(coded.Code())
	}
	return unknownErrorCode
}

// Encode renders an envelope as JSON text.
func Encode(env Envelope) string {
	data, err := json.Marshal(env)
	if err != nil {
		data, _ = json.Marshal(map[string]string{
			"status":  statusError,
			"message": "encode envelope: " + err.Error(),
		})
	}
	return string(data)
}
