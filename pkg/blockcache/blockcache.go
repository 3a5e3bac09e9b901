// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package blockcache caches sector payloads in front of the
// simulated disk, the same role groupcache's LRU tier plays in front of
// slower backing storage. There are no peers here
// -- one process, one disk -- so only the local lru.Cache is used.
package blockcache

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/kernellab/core/internal/core"
)

// Cache holds sector payloads keyed by sector number. It stores
// interface{} and hands back whatever was Put; its one user,
// pkg/disk.CachedDisk, puts a copy of the raw sector bytes.
type Cache struct {
	lock sync.Mutex
	lru  *lru.Cache
}

// New creates a Cache holding at most maxEntries decoded sectors.
func New(maxEntries int) *Cache {
	return &Cache{lru: lru.New(maxEntries)}
}

// Get returns the cached value for sector n, if present.
func (c *Cache) Get(n core.SectorNum) (interface{}, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lru.Get(n)
}

// Put caches value for sector n, evicting the least recently used entry
// if the cache is full.
func (c *Cache) Put(n core.SectorNum, value interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lru.Add(n, value)
}

// Invalidate removes any cached value for sector n. Callers must
// invalidate on every WriteSector to the corresponding sector, since the
// cache has no way to observe writes on its own.
func (c *Cache) Invalidate(n core.SectorNum) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lru.Remove(n)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lru.Len()
}
