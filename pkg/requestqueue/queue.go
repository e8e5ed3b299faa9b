// Package requestqueue holds pending external signing requests in arrival
// order, backed by the wallet's persistent store. The queue is a bounded,
// crash-resilient UX cache: it guarantees ordering and single-claim of the
// head element, but it is not a financial ledger.
package requestqueue

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/xarmian/voi-wallet-sub008/pkg/kvstore"
	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

const (
	// MaxQueueSize caps pending requests so a misbehaving peer cannot flood
	// the wallet.
	MaxQueueSize = 10
	// StaleRequestTimeout is how long a request may sit unclaimed before any
	// read evicts it.
	StaleRequestTimeout = 60 * time.Second

	queueStorageKey      = "wallet/request_queue"
	processingStorageKey = "wallet/request_queue_processing"
)

// ErrQueueFull is returned by Enqueue when the queue already holds
// MaxQueueSize live requests.
var ErrQueueFull = errors.New("request queue is full")

// Queue is the ordered holding area for pending signing requests. All
// operations run inside one globally ordered exclusive-access chain, which
// serializes mutations in invocation order; the backing store has no atomic
// read-modify-write of its own.
type Queue struct {
	store kvstore.Store
	chain opChain

	maxSize    int
	staleAfter time.Duration
	now        func() time.Time

	// processing caches the persisted drain-loop flag; once populated the
	// cache is authoritative and the store is only written, never re-read.
	processing *bool
}

// Option overrides one of the queue's default bounds.
type Option func(*Queue)

// WithMaxSize caps the queue at n pending requests instead of MaxQueueSize.
// Non-positive values keep the default.
func WithMaxSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxSize = n
		}
	}
}

// WithStaleTimeout evicts requests unclaimed for d instead of
// StaleRequestTimeout. Non-positive values keep the default.
func WithStaleTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.staleAfter = d
		}
	}
}

// New creates a queue over the given store with the default bounds.
func New(store kvstore.Store, opts ...Option) *Queue {
	q := &Queue{
		store:      store,
		maxSize:    MaxQueueSize,
		staleAfter: StaleRequestTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a request with a fresh timestamp. It fails with
// ErrQueueFull when the queue is at capacity and is a silent no-op when a
// request with the same (ID, Topic) is already queued. A store write failure
// propagates: the caller needs to know the request was not admitted.
func (q *Queue) Enqueue(req types.QueuedRequest) error {
	release := q.chain.acquire()
	defer release()

	reqs := q.evictStale(q.load())
	if len(reqs) >= q.maxSize {
		return ErrQueueFull
	}
	for i := range reqs {
		if reqs[i].Matches(req.ID, req.Topic) {
			logger.Debug("Duplicate request ignored", "id", req.ID, "topic", req.Topic)
			return nil
		}
	}

	req.Timestamp = q.now().UnixMilli()
	reqs = append(reqs, req)
	if err := q.persist(reqs); err != nil {
		return err
	}
	logger.Debug("Request enqueued", "id", req.ID, "topic", req.Topic, "size", len(reqs))
	return nil
}

// Dequeue unconditionally pops the head. The second return is false when the
// queue is empty.
func (q *Queue) Dequeue() (*types.QueuedRequest, bool) {
	release := q.chain.acquire()
	defer release()

	reqs := q.evictStale(q.load())
	if len(reqs) == 0 {
		return nil, false
	}
	head := reqs[0]
	q.persistBestEffort(reqs[1:])
	return &head, true
}

// DequeueIfMatch atomically pops the head only if its (ID, Topic) equals the
// arguments. On mismatch the queue is left untouched. This closes the
// check-then-act race of a caller that peeked, awaited something, and must
// not remove a different request that arrived in between.
func (q *Queue) DequeueIfMatch(id, topic string) (*types.QueuedRequest, bool) {
	release := q.chain.acquire()
	defer release()

	reqs := q.evictStale(q.load())
	if len(reqs) == 0 || !reqs[0].Matches(id, topic) {
		return nil, false
	}
	head := reqs[0]
	q.persistBestEffort(reqs[1:])
	return &head, true
}

// Remove deletes the request with the given identity regardless of its
// position. It reports whether anything was removed.
func (q *Queue) Remove(id, topic string) bool {
	release := q.chain.acquire()
	defer release()

	reqs := q.evictStale(q.load())
	kept := lo.Filter(reqs, func(r types.QueuedRequest, _ int) bool {
		return !r.Matches(id, topic)
	})
	if len(kept) == len(reqs) {
		return false
	}
	q.persistBestEffort(kept)
	return true
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (*types.QueuedRequest, bool) {
	release := q.chain.acquire()
	defer release()

	reqs := q.evictStale(q.load())
	if len(reqs) == 0 {
		return nil, false
	}
	head := reqs[0]
	return &head, true
}

// GetAll returns a copy of all live requests in arrival order.
func (q *Queue) GetAll() []types.QueuedRequest {
	release := q.chain.acquire()
	defer release()

	reqs := q.evictStale(q.load())
	out := make([]types.QueuedRequest, len(reqs))
	copy(out, reqs)
	return out
}

// Size returns the number of live requests.
func (q *Queue) Size() int {
	release := q.chain.acquire()
	defer release()

	return len(q.evictStale(q.load()))
}

// IsEmpty reports whether no live request is queued.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

// SetProcessing records that a drain loop currently owns the queue. The flag
// is persisted for cross-restart visibility; a write failure is logged and
// swallowed because the in-memory cache stays authoritative.
func (q *Queue) SetProcessing(v bool) {
	release := q.chain.acquire()
	defer release()

	flag := v
	q.processing = &flag
	if err := q.store.Set(processingStorageKey, []byte(strconv.FormatBool(v))); err != nil {
		logger.Error("Failed to persist processing flag", err)
	}
}

// IsProcessing reports whether a drain loop owns the queue. The persisted
// value is read once and cached.
func (q *Queue) IsProcessing() bool {
	release := q.chain.acquire()
	defer release()

	if q.processing != nil {
		return *q.processing
	}

	flag := false
	raw, err := q.store.Get(processingStorageKey)
	if err == nil {
		if parsed, parseErr := strconv.ParseBool(string(raw)); parseErr == nil {
			flag = parsed
		} else {
			logger.Warn("Processing flag corrupted, assuming idle", "value", string(raw))
		}
	} else if !errors.Is(err, kvstore.ErrKeyNotFound) {
		logger.Error("Failed to read processing flag", err)
	}
	q.processing = &flag
	return flag
}

// load reads the persisted queue. A corrupted payload is treated as an empty
// queue and the corrupt entry is wiped so the corruption self-heals instead
// of recurring. Must be called with the chain held.
func (q *Queue) load() []types.QueuedRequest {
	raw, err := q.store.Get(queueStorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			logger.Error("Failed to read request queue", err)
		}
		return nil
	}

	var reqs []types.QueuedRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		logger.Warn("Request queue storage corrupted, resetting", "error", err.Error())
		if delErr := q.store.Delete(queueStorageKey); delErr != nil {
			logger.Error("Failed to wipe corrupted request queue", delErr)
		}
		return nil
	}
	return reqs
}

// evictStale drops entries older than the staleness timeout. Eviction is a
// side effect of reading, not a background task: when anything was dropped
// the filtered collection is persisted before use. Must be called with the
// chain held.
func (q *Queue) evictStale(reqs []types.QueuedRequest) []types.QueuedRequest {
	cutoff := q.now().Add(-q.staleAfter).UnixMilli()
	kept := lo.Filter(reqs, func(r types.QueuedRequest, _ int) bool {
		return r.Timestamp >= cutoff
	})
	if len(kept) != len(reqs) {
		logger.Debug("Evicted stale requests", "evicted", len(reqs)-len(kept), "remaining", len(kept))
		q.persistBestEffort(kept)
	}
	return kept
}

func (q *Queue) persist(reqs []types.QueuedRequest) error {
	raw, err := json.Marshal(reqs)
	if err != nil {
		return err
	}
	return q.store.Set(queueStorageKey, raw)
}

// persistBestEffort writes the queue and swallows failures. Losing an
// eviction or dequeue write costs at most a re-surfaced request, not funds.
func (q *Queue) persistBestEffort(reqs []types.QueuedRequest) {
	if err := q.persist(reqs); err != nil {
		logger.Error("Failed to persist request queue", err)
	}
}
