package slab

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type CacheStats struct {
	Bytes int64

	Reads    int
	Created  time.Time
	LastRead time.Time
}

type cacheEntry struct {
	slab  *columnSlab
	stats CacheStats
}

// columnCache keeps decoded column slabs in memory. With a positive byte
// budget the least recently read slabs are dropped to make room for new
// ones.
type columnCache struct {
	maxBytes  int64
	usedBytes int64

	storage       map[uuid.UUID]*cacheEntry
	storageLocker sync.Mutex
}

func newColumnCache(maxBytes int64) *columnCache {
	return &columnCache{
		maxBytes: maxBytes,
		storage:  make(map[uuid.UUID]*cacheEntry),
	}
}

func (c *columnCache) get(uid uuid.UUID) *columnSlab {

	c.storageLocker.Lock()
	defer c.storageLocker.Unlock()

	entry, ok := c.storage[uid]
	if !ok {
		return nil
	}

	entry.stats.Reads++
	entry.stats.LastRead = time.Now()

	return entry.slab
}

func (c *columnCache) put(uid uuid.UUID, slab *columnSlab) {

	c.storageLocker.Lock()
	defer c.storageLocker.Unlock()

	if old, ok := c.storage[uid]; ok {
		c.usedBytes -= old.stats.Bytes
		delete(c.storage, uid)
	}

	size := slab.size()
	c.evictFor(size)

	tn := time.Now()

	c.storage[uid] = &cacheEntry{
		slab: slab,
		stats: CacheStats{
			Bytes:    size,
			Created:  tn,
			LastRead: tn,
		},
	}
	c.usedBytes += size
}

// evictFor drops least recently read entries until size more bytes fit.
// A slab larger than the whole budget is still cached alone.
func (c *columnCache) evictFor(size int64) {

	if c.maxBytes <= 0 {
		return
	}

	for c.usedBytes+size > c.maxBytes && len(c.storage) > 0 {

		var (
			oldestUid  uuid.UUID
			oldestTime time.Time
			found      bool
		)

		for uid, entry := range c.storage {
			if !found || entry.stats.LastRead.Before(oldestTime) {
				oldestUid, oldestTime, found = uid, entry.stats.LastRead, true
			}
		}

		c.usedBytes -= c.storage[oldestUid].stats.Bytes
		delete(c.storage, oldestUid)
	}
}

func (c *columnCache) stats() map[uuid.UUID]CacheStats {

	c.storageLocker.Lock()
	defer c.storageLocker.Unlock()

	result := make(map[uuid.UUID]CacheStats, len(c.storage))
	for uid, entry := range c.storage {
		result[uid] = entry.stats
	}
	return result
}

func (c *columnCache) reset() {

	c.storageLocker.Lock()
	defer c.storageLocker.Unlock()

	c.storage = make(map[uuid.UUID]*cacheEntry)
	c.usedBytes = 0
}

func (s *columnSlab) size() int64 {
	return int64(len(s.payload) + len(s.flags) + 8*len(s.offsets))
}
