package requestqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xarmian/voi-wallet-sub008/pkg/kvstore"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

func newRequest(id, topic string) types.QueuedRequest {
	return types.QueuedRequest{
		ID:    id,
		Topic: topic,
		Params: types.RequestParams{
			Request: types.InnerRequest{Method: "avm_signTxns"},
			ChainID: "voi:testnet",
		},
	}
}

func TestQueue_EnqueueDequeueOrder(t *testing.T) {
	q := New(kvstore.NewMemoryStore())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(newRequest(fmt.Sprintf("req-%d", i), "topic-a")))
	}
	assert.Equal(t, 5, q.Size())

	for i := 0; i < 5; i++ {
		head, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("req-%d", i), head.ID)
	}
	assert.True(t, q.IsEmpty())

	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestQueue_EnqueueDuplicateIsNoOp(t *testing.T) {
	q := New(kvstore.NewMemoryStore())

	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))
	require.NoError(t, q.Enqueue(newRequest("req-2", "topic-a")))
	before := q.GetAll()

	// Same id on the same topic must leave size and contents unchanged.
	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))
	assert.Equal(t, before, q.GetAll())

	// Same id on a different topic is a distinct request.
	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-b")))
	assert.Equal(t, 3, q.Size())
}

func TestQueue_EnqueueQueueFull(t *testing.T) {
	q := New(kvstore.NewMemoryStore())

	for i := 0; i < MaxQueueSize; i++ {
		require.NoError(t, q.Enqueue(newRequest(fmt.Sprintf("req-%d", i), "topic-a")))
	}
	before := q.GetAll()

	err := q.Enqueue(newRequest("overflow", "topic-a"))
	require.ErrorIs(t, err, ErrQueueFull)

	after := q.GetAll()
	require.Len(t, after, MaxQueueSize)
	assert.Equal(t, before, after)
}

func TestQueue_ConfiguredMaxSize(t *testing.T) {
	q := New(kvstore.NewMemoryStore(), WithMaxSize(2))

	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))
	require.NoError(t, q.Enqueue(newRequest("req-2", "topic-a")))

	err := q.Enqueue(newRequest("req-3", "topic-a"))
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Size())
}

func TestQueue_ConfiguredStaleTimeout(t *testing.T) {
	q := New(kvstore.NewMemoryStore(), WithStaleTimeout(5*time.Second))
	base := time.Now()
	q.now = func() time.Time { return base }

	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))

	// Well inside the default timeout but past the configured one.
	q.now = func() time.Time { return base.Add(5*time.Second + time.Millisecond) }
	assert.True(t, q.IsEmpty())
}

func TestQueue_NonPositiveOptionsKeepDefaults(t *testing.T) {
	q := New(kvstore.NewMemoryStore(), WithMaxSize(0), WithStaleTimeout(-time.Second))

	assert.Equal(t, MaxQueueSize, q.maxSize)
	assert.Equal(t, StaleRequestTimeout, q.staleAfter)
}

func TestQueue_DequeueIfMatch(t *testing.T) {
	q := New(kvstore.NewMemoryStore())

	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))
	require.NoError(t, q.Enqueue(newRequest("req-2", "topic-a")))

	// Mismatching id leaves the queue untouched.
	before := q.GetAll()
	_, ok := q.DequeueIfMatch("req-2", "topic-a")
	assert.False(t, ok)
	assert.Equal(t, before, q.GetAll())

	// Mismatching topic as well.
	_, ok = q.DequeueIfMatch("req-1", "topic-b")
	assert.False(t, ok)
	assert.Equal(t, before, q.GetAll())

	// Matching head is removed and returned.
	head, ok := q.DequeueIfMatch("req-1", "topic-a")
	require.True(t, ok)
	assert.Equal(t, "req-1", head.ID)
	assert.Equal(t, 1, q.Size())
}

func TestQueue_StaleRequestsEvictedOnRead(t *testing.T) {
	q := New(kvstore.NewMemoryStore())
	base := time.Now()
	q.now = func() time.Time { return base }

	require.NoError(t, q.Enqueue(newRequest("old", "topic-a")))

	q.now = func() time.Time { return base.Add(30 * time.Second) }
	require.NoError(t, q.Enqueue(newRequest("fresh", "topic-a")))

	// One millisecond past the timeout the first request is gone from every
	// read, with no explicit dequeue.
	q.now = func() time.Time { return base.Add(StaleRequestTimeout + time.Millisecond) }
	all := q.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "fresh", all[0].ID)

	// Eviction shifted the head, so a conditional dequeue for the evicted
	// entry finds no match.
	_, ok := q.DequeueIfMatch("old", "topic-a")
	assert.False(t, ok)

	head, ok := q.DequeueIfMatch("fresh", "topic-a")
	require.True(t, ok)
	assert.Equal(t, "fresh", head.ID)
}

func TestQueue_StaleEvictionPersists(t *testing.T) {
	store := kvstore.NewMemoryStore()
	q := New(store)
	base := time.Now()
	q.now = func() time.Time { return base }

	require.NoError(t, q.Enqueue(newRequest("old", "topic-a")))

	q.now = func() time.Time { return base.Add(StaleRequestTimeout + time.Second) }
	assert.Equal(t, 0, q.Size())

	raw, err := store.Get("wallet/request_queue")
	require.NoError(t, err)
	var persisted []types.QueuedRequest
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Empty(t, persisted)
}

func TestQueue_CorruptedStorageSelfHeals(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set("wallet/request_queue", []byte("{not json")))

	q := New(store)
	assert.Equal(t, 0, q.Size())

	// The corrupt entry was wiped, not left to fail again.
	_, err := store.Get("wallet/request_queue")
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

	// The queue is usable afterwards.
	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))
	assert.Equal(t, 1, q.Size())
}

func TestQueue_Remove(t *testing.T) {
	q := New(kvstore.NewMemoryStore())

	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))
	require.NoError(t, q.Enqueue(newRequest("req-2", "topic-a")))
	require.NoError(t, q.Enqueue(newRequest("req-3", "topic-a")))

	// Removal works regardless of position.
	assert.True(t, q.Remove("req-2", "topic-a"))
	assert.False(t, q.Remove("req-2", "topic-a"))

	all := q.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "req-1", all[0].ID)
	assert.Equal(t, "req-3", all[1].ID)
}

func TestQueue_ProcessingFlagPersisted(t *testing.T) {
	store := kvstore.NewMemoryStore()

	q := New(store)
	assert.False(t, q.IsProcessing())
	q.SetProcessing(true)
	assert.True(t, q.IsProcessing())

	// A second queue over the same store observes the flag across restarts.
	restarted := New(store)
	assert.True(t, restarted.IsProcessing())

	q.SetProcessing(false)
	assert.False(t, q.IsProcessing())
}

func TestQueue_ConcurrentEnqueueDequeue(t *testing.T) {
	q := New(kvstore.NewMemoryStore())

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = q.Enqueue(newRequest(fmt.Sprintf("req-%d", n), "topic-a"))
		}(i)
	}
	wg.Wait()

	// Every enqueue was admitted exactly once and order is a permutation of
	// invocation order with no corruption or loss.
	all := q.GetAll()
	require.Len(t, all, writers)
	seen := make(map[string]bool, writers)
	for _, r := range all {
		assert.False(t, seen[r.ID], "request %s admitted twice", r.ID)
		seen[r.ID] = true
	}

	for i := 0; i < writers; i++ {
		_, ok := q.Dequeue()
		require.True(t, ok)
	}
	assert.True(t, q.IsEmpty())
}

// failingStore rejects writes to the queue key so write-failure propagation
// can be observed.
type failingStore struct {
	*kvstore.MemoryStore
	failSet bool
}

func (f *failingStore) Set(key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(key, value)
}

func TestQueue_EnqueueWriteFailurePropagates(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore()}
	q := New(store)

	store.failSet = true
	err := q.Enqueue(newRequest("req-1", "topic-a"))
	require.Error(t, err)

	// The request was not admitted.
	store.failSet = false
	assert.Equal(t, 0, q.Size())
}

func TestQueue_DequeueWriteFailureSwallowed(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore()}
	q := New(store)

	require.NoError(t, q.Enqueue(newRequest("req-1", "topic-a")))

	store.failSet = true
	head, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "req-1", head.ID)
}
