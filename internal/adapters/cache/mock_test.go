package cache

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type mockCacheServerEntry[T any] struct {
	data       T
	valid      bool
	insertedAt int
}

// Lock-step cache server for testing the claim protocol.
//
// Every client calls wait() to finish its current tick. The tick advances once all
// clients have finished it, so interleavings across clients are deterministic per tick.
type mockCacheServer[T any] struct {
	mu      sync.Mutex
	entries map[string]mockCacheServerEntry[T]

	currentTick       atomic.Int64
	completedThisTick atomic.Int64
	maxTicks          int
	numClients        int
}

type mockCacheClient[T any] struct {
	server      *mockCacheServer[T]
	desiredTick int
}

func (c *mockCacheClient[T]) getOrClaim(key string) hitResult[T] {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	if entry, ok := c.server.entries[key]; ok {
		return hitResult[T]{
			data:    entry.data,
			valid:   entry.valid,
			claimed: false,
		}
	}

	c.server.entries[key] = mockCacheServerEntry[T]{
		valid:      false,
		insertedAt: c.server.tick(),
	}
	return hitResult[T]{
		valid:   false,
		claimed: true,
	}
}

func (c *mockCacheClient[T]) set(key string, data T) {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	c.server.entries[key] = mockCacheServerEntry[T]{
		data:       data,
		valid:      true,
		insertedAt: c.server.tick(),
	}
}

func (c *mockCacheClient[T]) delete(key string) {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()

	delete(c.server.entries, key)
}

// Finish the current tick and block until every other client has too
func (c *mockCacheClient[T]) wait() {
	if c.server.isDone() {
		panic("wait() called on a client that is already done")
	}

	c.server.completedThisTick.Add(1)
	c.desiredTick++

	for c.server.tick() < c.desiredTick {
		runtime.Gosched()
	}
}

func (c *mockCacheClient[T]) waitUntilDone() {
	for !c.server.isDone() {
		c.wait()
	}
}

func (s *mockCacheServer[T]) tick() int {
	return int(s.currentTick.Load())
}

func (s *mockCacheServer[T]) isDone() bool {
	return s.tick() >= s.maxTicks
}

func (s *mockCacheServer[T]) processTicks() {
	for !s.isDone() {
		if s.completedThisTick.Load() != int64(s.numClients) {
			runtime.Gosched()
			continue
		}

		s.completedThisTick.Store(0)
		s.currentTick.Add(1)
	}
}

func newMockCacheServer[T any](numClients int, maxTicks int) (*mockCacheServer[T], []*mockCacheClient[T]) {
	server := &mockCacheServer[T]{
		entries:    make(map[string]mockCacheServerEntry[T]),
		maxTicks:   maxTicks,
		numClients: numClients,
	}

	clients := make([]*mockCacheClient[T], numClients)
	for i := range numClients {
		clients[i] = &mockCacheClient[T]{server: server}
	}

	return server, clients
}
