package types

import "encoding/json"

// InnerRequest is the method envelope a connected peer sends through the
// pairing gateway.
type InnerRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// RequestParams wraps the peer request together with the chain it targets.
type RequestParams struct {
	Request InnerRequest `json:"request"`
	ChainID string       `json:"chainId"`
}

// QueuedRequest is one pending external signing request as persisted in the
// request queue. While a request is queued, (ID, Topic) is unique.
type QueuedRequest struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Params    RequestParams `json:"params"`
	Timestamp int64         `json:"timestamp"` // unix milliseconds, stamped on enqueue
	Version   int           `json:"version,omitempty"`
}

// Matches reports whether the request carries the given identity.
func (r *QueuedRequest) Matches(id, topic string) bool {
	return r.ID == id && r.Topic == topic
}
