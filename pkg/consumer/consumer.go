// Package consumer bridges the pairing gateway to the signing pipeline. It
// admits incoming sign requests into the durable queue and drains the queue
// one request at a time, publishing exactly one terminal result per request.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/xarmian/voi-wallet-sub008/pkg/event"
	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
	"github.com/xarmian/voi-wallet-sub008/pkg/messaging"
	"github.com/xarmian/voi-wallet-sub008/pkg/requestqueue"
	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/signing"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

const methodSignTxns = "avm_signTxns"

// AccountResolver maps a request topic to the hosted account that should
// serve it, together with the credential unlocking its signer.
type AccountResolver interface {
	Resolve(topic string) (*types.Account, *types.Credential, error)
}

// SignRequestConsumer runs the request intake and drain loop.
type SignRequestConsumer interface {
	Run(ctx context.Context) error
	Close() error
}

type signRequestConsumer struct {
	pubsub       messaging.PubSub
	resultQueue  messaging.MessageQueue
	queue        *requestqueue.Queue
	orchestrator *signing.Orchestrator
	resolver     AccountResolver

	sub  messaging.Subscription
	wake chan struct{}
}

func NewSignRequestConsumer(
	pubsub messaging.PubSub,
	resultQueue messaging.MessageQueue,
	queue *requestqueue.Queue,
	orchestrator *signing.Orchestrator,
	resolver AccountResolver,
) SignRequestConsumer {
	return &signRequestConsumer{
		pubsub:       pubsub,
		resultQueue:  resultQueue,
		queue:        queue,
		orchestrator: orchestrator,
		resolver:     resolver,
		wake:         make(chan struct{}, 1),
	}
}

// Run subscribes to sign request topics and drains the queue until ctx is
// cancelled. Requests that survived a restart are drained first.
func (c *signRequestConsumer) Run(ctx context.Context) error {
	sub, err := c.pubsub.Subscribe(event.SignRequestTopic, c.handleRequestMessage)
	if err != nil {
		return fmt.Errorf("subscribe to sign requests: %w", err)
	}
	c.sub = sub
	logger.Info("Listening for sign requests", "topic", event.SignRequestTopic)

	// A crash mid-drain leaves the flag set; nobody owns the queue now.
	c.queue.SetProcessing(false)
	c.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			c.drain(ctx)
		}
	}
}

func (c *signRequestConsumer) Close() error {
	if c.sub != nil {
		return c.sub.Unsubscribe()
	}
	return nil
}

// handleRequestMessage admits one gateway message into the queue. A full
// queue is answered immediately so the peer is not left waiting on a request
// that will never run.
func (c *signRequestConsumer) handleRequestMessage(msg *nats.Msg) {
	var req types.QueuedRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		logger.Warn("Dropping malformed sign request", "subject", msg.Subject, "error", err.Error())
		return
	}
	if req.ID == "" {
		// Older gateways omit the ID; generate one so the request still has
		// a stable identity for dedup and result routing.
		req.ID = uuid.NewString()
	}
	if req.Topic == "" {
		req.Topic = msg.Subject
	}

	if err := c.queue.Enqueue(req); err != nil {
		if errors.Is(err, requestqueue.ErrQueueFull) {
			logger.Warn("Request queue full, rejecting request", "id", req.ID)
			c.publishResult(&req, &types.SigningResult{
				Success: false,
				Err:     signererr.New(signererr.CodeQueueFull, "too many pending signing requests"),
			})
			return
		}
		logger.Error("Failed to enqueue sign request", err, "id", req.ID)
		return
	}

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// drain serves queued requests head-first until the queue is empty. At most
// one drain runs at a time; the processing flag keeps a second wake-up from
// starting a competing loop.
func (c *signRequestConsumer) drain(ctx context.Context) {
	if c.queue.IsProcessing() {
		return
	}
	c.queue.SetProcessing(true)
	defer c.queue.SetProcessing(false)

	for ctx.Err() == nil {
		head, ok := c.queue.Peek()
		if !ok {
			return
		}

		result := c.serve(ctx, head)
		c.publishResult(head, result)

		// Only the request we actually served is removed. A different head
		// means the queue changed under us; start over from the new head.
		if _, ok := c.queue.DequeueIfMatch(head.ID, head.Topic); !ok {
			logger.Warn("Queue head changed during signing", "id", head.ID)
		}
	}
}

// serve runs one queued request through the orchestrator and always returns
// a terminal result.
func (c *signRequestConsumer) serve(ctx context.Context, head *types.QueuedRequest) *types.SigningResult {
	account, cred, err := c.resolver.Resolve(head.Topic)
	if err != nil {
		sErr := signererr.Sanitize(err)
		logger.Warn("No account for request topic", "topic", head.Topic, "code", string(sErr.Code))
		return &types.SigningResult{Success: false, Err: sErr}
	}

	signingReq, sErr := buildSigningRequest(head, account, cred)
	if sErr != nil {
		return &types.SigningResult{Success: false, Err: sErr}
	}

	result, err := c.orchestrator.SignTransaction(ctx, signingReq, c.progressCallbacks(head))
	if err != nil && result == nil {
		return &types.SigningResult{Success: false, Err: signererr.Sanitize(err)}
	}
	return result
}

// buildSigningRequest translates the gateway wire envelope into the internal
// signing request. Peer sessions only ever propose raw transaction batches.
func buildSigningRequest(head *types.QueuedRequest, account *types.Account, cred *types.Credential) (*types.SigningRequest, *signererr.Error) {
	inner := head.Params.Request
	if inner.Method != methodSignTxns {
		return nil, signererr.New(signererr.CodeValidation,
			fmt.Sprintf("unsupported request method %q", inner.Method))
	}

	var txns []types.BatchTxn
	for _, raw := range inner.Params {
		var group []types.BatchTxn
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, signererr.New(signererr.CodeValidation, "malformed transaction group in request")
		}
		txns = append(txns, group...)
	}
	if len(txns) == 0 {
		return nil, signererr.New(signererr.CodeValidation, "request contains no transactions")
	}

	return &types.SigningRequest{
		Type:       types.TxTypeBatchSign,
		Account:    account,
		Credential: cred,
		Batch:      &types.BatchSignParams{Txns: txns},
	}, nil
}

func (c *signRequestConsumer) progressCallbacks(head *types.QueuedRequest) *types.SigningCallbacks {
	return &types.SigningCallbacks{
		OnSigningStart: func() {
			logger.Info("Signing request", "id", head.ID, "topic", head.Topic)
		},
		OnDeviceAwait: func(index, total int) {
			logger.Debug("Awaiting signature", "id", head.ID, "txn", index, "total", total)
		},
		OnDeviceRejected: func(index, total int, sErr *signererr.Error) {
			logger.Warn("Transaction rejected", "id", head.ID, "txn", index, "code", string(sErr.Code))
		},
		OnError: func(sErr *signererr.Error) {
			logger.Warn("Request failed", "id", head.ID, "code", string(sErr.Code), "reason", sErr.Message)
		},
	}
}

// publishResult reports the terminal outcome through the durable result
// queue. The request ID doubles as the idempotency key, so a redelivered
// publish cannot produce a second result event.
func (c *signRequestConsumer) publishResult(req *types.QueuedRequest, result *types.SigningResult) {
	ev := event.SignResultEvent{
		RequestID: req.ID,
		Topic:     req.Topic,
	}
	if result.Success {
		ev.ResultType = event.ResultTypeSuccess
		ev.TxIDs = result.TxIDs
		ev.SignedTxns = result.SignedTxns
	} else {
		ev.ResultType = event.ResultTypeError
		if result.Err != nil {
			ev.ErrorCode = result.Err.Code
			ev.ErrorReason = result.Err.Message
		}
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to marshal sign result", err, "id", req.ID)
		return
	}
	if err := c.resultQueue.Enqueue(event.FormatSignResultTopic(req.ID), raw, &messaging.EnqueueOptions{
		IdempotentKey: req.ID,
	}); err != nil {
		logger.Error("Failed to publish sign result", err, "id", req.ID)
	}
}
