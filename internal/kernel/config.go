// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

package kernel

import (
	"fmt"

	"github.com/kernellab/core/internal/core"
)

// Config holds the kernel's runtime-tunable parameters. Sector geometry
// (SectorSize, NumSectors) is compile-time fixed by internal/core's
// constants -- the on-disk header layout embeds a fixed direct-pointer
// array sized from them -- so Config only carries what can genuinely
// vary between runs: where the simulated disk's durable state lives and
// how often the tick driver invokes aging.
//
// Config carries JSON tags, but nothing in this repository reads a
// config file into it or overrides it from command-line flags: kernelctl
// builds every Context from DefaultConfig as is.
type Config struct {
	// DiskPath is the boltdb file backing the simulated disk. Empty means
	// an in-memory disk that does not survive the process.
	DiskPath string `json:"diskPath"`

	// AgingCadenceTicks is how many simulated ticks the driver lets pass
	// between calls to scheduler.Aging.
	AgingCadenceTicks int `json:"agingCadenceTicks"`

	// OpenFileTableSize is retained in config for visibility even though
	// internal/core fixes it; a mismatch is rejected by Validate.
	OpenFileTableSize int `json:"openFileTableSize"`
}

// DefaultConfig is the configuration a fresh kernelctl invocation starts
// from before any config file or flag override is applied.
var DefaultConfig = Config{
	DiskPath:          "",
	AgingCadenceTicks: core.AgingCadenceTicks,
	OpenFileTableSize: core.OpenFileTableSize,
}

// Validate checks that a Config does not contradict the compile-time
// geometry constants.
func (c Config) Validate() error {
	if c.AgingCadenceTicks <= 0 {
		return fmt.Errorf("kernel: agingCadenceTicks must be positive, got %d", c.AgingCadenceTicks)
	}
	if c.OpenFileTableSize != core.OpenFileTableSize {
		return fmt.Errorf("kernel: openFileTableSize is fixed at %d, got %d", core.OpenFileTableSize, c.OpenFileTableSize)
	}
	return nil
}
