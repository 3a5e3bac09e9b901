// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package disk

import (
	"encoding/binary"

	"github.com/boltdb/bolt"
	log "github.com/golang/glog"

	"github.com/kernellab/core/internal/core"
)

var sectorsBucket = []byte("sectors")

// BoltDisk is a Disk backed by a bolt key-value store: one bucket, keyed
// by big-endian sector number, valued by the sector's raw bytes. Unlike a
// real block device, an unwritten sector simply has no key yet; ReadSector
// synthesizes a zero-filled sector in that case, matching a freshly
// formatted disk.
type BoltDisk struct {
	db         *bolt.DB
	sectorSize int
	numSectors int
}

// OpenBoltDisk opens (creating if necessary) a bolt-backed disk at path,
// with the given fixed geometry.
func OpenBoltDisk(path string, sectorSize, numSectors int) (*BoltDisk, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		log.Errorf("disk: failed to open bolt disk at %s: %v", path, err)
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sectorsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltDisk{db: db, sectorSize: sectorSize, numSectors: numSectors}, nil
}

// SectorSize implements Disk.
func (d *BoltDisk) SectorSize() int { return d.sectorSize }

// NumSectors implements Disk.
func (d *BoltDisk) NumSectors() int { return d.numSectors }

// ReadSector implements Disk.
func (d *BoltDisk) ReadSector(n core.SectorNum, buf []byte) error {
	if err := checkBounds(n, buf, d.numSectors, d.sectorSize); err != nil {
		return err
	}
	key := sectorKey(n)
	return d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sectorsBucket).Get(key)
		if v == nil {
			for i := range buf {
				buf[i] = 0
			}
			return nil
		}
		copy(buf, v)
		return nil
	})
}

// WriteSector implements Disk.
func (d *BoltDisk) WriteSector(n core.SectorNum, buf []byte) error {
	if err := checkBounds(n, buf, d.numSectors, d.sectorSize); err != nil {
		return err
	}
	key := sectorKey(n)
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sectorsBucket).Put(key, cp)
	})
}

// Close implements Disk.
func (d *BoltDisk) Close() error {
	return d.db.Close()
}

func sectorKey(n core.SectorNum) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(n))
	return key
}
