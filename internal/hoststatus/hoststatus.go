// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package hoststatus reports real host memory and disk pressure via
// github.com/cloudfoundry/gosigar, for `kernelctl status` to show next
// to the simulated kernel's own free-map exhaustion.
package hoststatus

import (
	sigar "github.com/cloudfoundry/gosigar"

	log "github.com/golang/glog"
)

// Host summarizes the real machine's memory and disk usage.
type Host struct {
	MemTotal  uint64
	MemFree   uint64
	DiskTotal uint64
	DiskFree  uint64
}

// Read gathers the current host memory usage and disk usage for
// mountPoint. A gosigar failure is logged and leaves the corresponding
// fields zero rather than aborting the caller.
func Read(mountPoint string) Host {
	var h Host

	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		log.Errorf("hoststatus: failed to get memory info: %s", err)
	} else {
		h.MemTotal = mem.Total
		h.MemFree = mem.ActualFree
	}

	fs := sigar.FileSystemUsage{}
	if err := fs.Get(mountPoint); err != nil {
		log.Errorf("hoststatus: failed to get disk usage for %s: %s", mountPoint, err)
	} else {
		h.DiskTotal = fs.Total
		h.DiskFree = fs.Free
	}

	return h
}

// Summary bundles the real host's status with the simulated kernel's own
// free-map accounting, for a single `kernelctl status` report.
type Summary struct {
	Host         Host
	FreeSectors  int
	TotalSectors int
}

// BuildSummary combines Read's host report with the simulated disk's
// current free-sector count.
func BuildSummary(mountPoint string, freeSectors, totalSectors int) Summary {
	return Summary{
		Host:         Read(mountPoint),
		FreeSectors:  freeSectors,
		TotalSectors: totalSectors,
	}
}
