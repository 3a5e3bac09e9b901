// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for syscallapi.go
package syscallapi

import (
	"testing"

	"github.com/kernellab/core/internal/core"
	"github.com/kernellab/core/internal/kernel"
	"github.com/kernellab/core/pkg/disk"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	d := disk.NewMemDisk(core.SectorSize, core.NumSectors)
	ctx := kernel.New(kernel.DefaultConfig, d, true, nil, nil)
	return New(ctx)
}

func TestCreateOpenWriteReadClose(t *testing.T) {
	a := newTestAPI(t)

	if rc := a.Create("/f"); rc != 0 {
		t.Fatalf("Create() = %d, want 0", rc)
	}

	id := a.Open("/f")
	if id == 0 {
		t.Fatal("Open() = 0, want a valid slot id")
	}

	want := []byte("hi")
	if n := a.Write(want, len(want), id); n != len(want) {
		t.Fatalf("Write() = %d, want %d", n, len(want))
	}

	// The cursor has already advanced past the write, so this reads the
	// next len(want) bytes of the file rather than what was just written.
	got := make([]byte, len(want))
	if n := a.Read(got, len(got), id); n != len(want) {
		t.Fatalf("Read() = %d, want %d", n, len(want))
	}

	if rc := a.Close(id); rc != 0 {
		t.Fatalf("Close() = %d, want 0", rc)
	}
	if rc := a.Close(id); rc != 1 {
		t.Fatalf("Close() again = %d, want 1", rc)
	}
}

func TestOpenMissingFileFails(t *testing.T) {
	a := newTestAPI(t)
	if id := a.Open("/nope"); id != 0 {
		t.Fatalf("Open() of missing file = %d, want 0", id)
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	a := newTestAPI(t)
	a.Create("/f")
	if rc := a.Create("/f"); rc != 1 {
		t.Fatalf("Create() duplicate = %d, want 1", rc)
	}
}

func TestReadWriteOnClosedIDFails(t *testing.T) {
	a := newTestAPI(t)
	a.Create("/f")
	id := a.Open("/f")
	a.Close(id)

	buf := make([]byte, 4)
	if n := a.Read(buf, len(buf), id); n != -1 {
		t.Fatalf("Read() on closed id = %d, want -1", n)
	}
	if n := a.Write(buf, len(buf), id); n != -1 {
		t.Fatalf("Write() on closed id = %d, want -1", n)
	}
}
