// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package disk

import (
	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/pkg/blockcache"
)

// CachedDisk wraps a Disk with a pkg/blockcache read cache, so repeated
// reads of the same sector -- a directory's table, a header chain's
// first block -- skip the inner Disk entirely. Every write invalidates
// its sector, since the cache has no way to observe a write on its own.
type CachedDisk struct {
	inner Disk
	cache *blockcache.Cache
}

// NewCachedDisk wraps inner with cache. Most useful in front of a
// BoltDisk, where a cache hit skips a real bolt transaction; wrapping a
// MemDisk only adds overhead, since MemDisk is already just a slice.
func NewCachedDisk(inner Disk, cache *blockcache.Cache) *CachedDisk {
	return &CachedDisk{inner: inner, cache: cache}
}

// SectorSize implements Disk.
func (d *CachedDisk) SectorSize() int { return d.inner.SectorSize() }

// NumSectors implements Disk.
func (d *CachedDisk) NumSectors() int { return d.inner.NumSectors() }

// ReadSector implements Disk.
func (d *CachedDisk) ReadSector(n core.SectorNum, buf []byte) error {
	if v, ok := d.cache.Get(n); ok {
		copy(buf, v.([]byte))
		return nil
	}
	if err := d.inner.ReadSector(n, buf); err != nil {
		return err
	}
	cached := make([]byte, len(buf))
	copy(cached, buf)
	d.cache.Put(n, cached)
	return nil
}

// WriteSector implements Disk.
func (d *CachedDisk) WriteSector(n core.SectorNum, buf []byte) error {
	if err := d.inner.WriteSector(n, buf); err != nil {
		return err
	}
	d.cache.Invalidate(n)
	return nil
}

// Close implements Disk.
func (d *CachedDisk) Close() error {
	return d.inner.Close()
}
