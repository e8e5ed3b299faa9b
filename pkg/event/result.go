package event

import "github.com/xarmian/voi-wallet-sub008/pkg/signererr"

type ResultType string

const (
	ResultTypeSuccess ResultType = "success"
	ResultTypeError   ResultType = "error"
)

// SignResultEvent is the terminal outcome published back to the pairing
// gateway for one queued request.
type SignResultEvent struct {
	ResultType ResultType `json:"result_type"`
	RequestID  string     `json:"request_id"`
	Topic      string     `json:"topic"`

	TxIDs      []string `json:"tx_ids,omitempty"`
	SignedTxns []string `json:"signed_txns,omitempty"`

	ErrorCode   signererr.Code `json:"error_code,omitempty"`
	ErrorReason string         `json:"error_reason,omitempty"`
}
