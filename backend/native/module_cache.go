package native

import (
	"encoding/binary"
	"hash/fnv"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// moduleCache deduplicates shader modules by SPIR-V content.
//
// Every renderer on an adapter compiles the same triangle shader, and every
// MSAA target the same blit shader; they share one HAL module per distinct
// bytecode. Entries are reference counted and the HAL module is destroyed
// when the last reference is released.
//
// Thread Safety: moduleCache is safe for concurrent use.
type moduleCache struct {
	mu      sync.Mutex
	entries map[uint64][]*cachedModule

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cachedModule struct {
	hash   uint64
	spirv  []uint32
	module hal.ShaderModule
	refs   int
}

func newModuleCache() *moduleCache {
	return &moduleCache{entries: make(map[uint64][]*cachedModule)}
}

// acquire returns the module compiled from spirv, calling create on a miss.
// The lock is held across create so concurrent misses compile once.
func (c *moduleCache) acquire(spirv []uint32, create func() (hal.ShaderModule, error)) (*cachedModule, error) {
	h := hashSPIRV(spirv)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries[h] {
		if slices.Equal(e.spirv, spirv) {
			e.refs++
			c.hits.Add(1)
			return e, nil
		}
	}

	module, err := create()
	if err != nil {
		return nil, err
	}
	c.misses.Add(1)
	e := &cachedModule{hash: h, spirv: slices.Clone(spirv), module: module, refs: 1}
	c.entries[h] = append(c.entries[h], e)
	return e, nil
}

// release drops one reference and reports whether it was the last one.
// The caller destroys the HAL module in that case.
func (c *moduleCache) release(e *cachedModule) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.refs--
	if e.refs > 0 {
		return false
	}
	bucket := c.entries[e.hash]
	if i := slices.Index(bucket, e); i >= 0 {
		bucket = slices.Delete(bucket, i, i+1)
	}
	if len(bucket) == 0 {
		delete(c.entries, e.hash)
	} else {
		c.entries[e.hash] = bucket
	}
	return true
}

// Len returns the number of distinct modules held.
func (c *moduleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

// Stats returns the number of cache hits and misses.
func (c *moduleCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// hashSPIRV computes an FNV-1a hash over the little-endian words.
func hashSPIRV(words []uint32) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, w := range words {
		binary.LittleEndian.PutUint32(buf[:], w)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
