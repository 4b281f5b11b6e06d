// Package memopt implements the Memory Optimizer: a concurrent non-admin
// reclamation pipeline, an adaptive memory-pressure loop, a bounded chunk
// pool, and an admin-elevated deep-clean state machine with supervised
// child process.
package memopt

import "sync"

// maxPoolChunks bounds the free-list reused across rounds/operations to
// avoid allocator churn, per spec.md §4.4.
const maxPoolChunks = 10

// ChunkPool is a bounded free-list of byte slices, grounded on the
// engine's resources.Manager bounded-resource philosophy (fixed-size
// in-flight/slot accounting) applied here to raw allocation reuse instead
// of cached pages.
type ChunkPool struct {
	mu    sync.Mutex
	free  [][]byte
}

// NewChunkPool builds an empty pool.
func NewChunkPool() *ChunkPool { return &ChunkPool{} }

// Get returns a chunk of at least size bytes, reusing a pooled chunk of
// adequate capacity when available.
func (p *ChunkPool) Get(size int) []byte {
	p.mu.Lock()
	for i, c := range p.free {
		if cap(c) >= size {
			p.free = append(p.free[:i], p.free[i+1:]...)
			p.mu.Unlock()
			return c[:size]
		}
	}
	p.mu.Unlock()
	return make([]byte, size)
}

// Put returns chunk to the pool, dropping it if the pool is already at
// capacity.
func (p *ChunkPool) Put(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= maxPoolChunks {
		return
	}
	p.free = append(p.free, chunk)
}

// Len reports the number of chunks currently pooled (test/observability
// helper).
func (p *ChunkPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
