package requestqueue

import "sync"

// opChain serializes operations in strict invocation order. Each acquire
// appends the caller after the currently pending operation and blocks until
// its predecessor releases, which gives FIFO execution even when callers
// issue operations back-to-back without waiting for each other. A plain
// sync.Mutex would not do: it makes no ordering promise between waiters.
type opChain struct {
	mu   sync.Mutex
	tail chan struct{}
}

// acquire blocks until every previously registered operation has finished
// and returns the release function for this operation.
func (c *opChain) acquire() (release func()) {
	gate := make(chan struct{})

	c.mu.Lock()
	prev := c.tail
	c.tail = gate
	c.mu.Unlock()

	if prev != nil {
		<-prev
	}
	return func() { close(gate) }
}
