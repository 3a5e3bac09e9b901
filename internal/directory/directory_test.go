// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT
//
// Tests for directory.go and encoding.go
package directory

import (
	"strings"
	"testing"

	"github.com/kernellab/core/internal/core"
)

func TestAddAndFindHere(t *testing.T) {
	d := New()
	if err := d.Add("g", 5, FileType); err != core.NoError {
		t.Fatalf("Add() = %v, want NoError", err)
	}
	e, ok := d.FindHere("g")
	if !ok {
		t.Fatal("FindHere(\"g\") not found after Add")
	}
	if e.Sector != 5 || e.Type != FileType {
		t.Fatalf("FindHere(\"g\") = %+v, want sector 5, type file", e)
	}
}

func TestAddDuplicateFails(t *testing.T) {
	d := New()
	d.Add("g", 5, FileType)
	if err := d.Add("g", 6, FileType); err != core.ErrAlreadyExists {
		t.Fatalf("Add() duplicate = %v, want ErrAlreadyExists", err)
	}
}

func TestAddFullTableFails(t *testing.T) {
	d := New()
	for i := 0; i < core.NumDirEntries; i++ {
		name := string(rune('a' + i%26))
		if i >= 26 {
			name = name + string(rune('a'+i/26))
		}
		if err := d.Add(name, core.SectorNum(i), FileType); err != core.NoError {
			t.Fatalf("Add(%q) = %v at i=%d, want NoError", name, err, i)
		}
	}
	if err := d.Add("overflow", 999, FileType); err != core.ErrNoSpace {
		t.Fatalf("Add() on full table = %v, want ErrNoSpace", err)
	}
}

func TestRemoveTypeMismatch(t *testing.T) {
	d := New()
	d.Add("sub", 7, DirType)
	if err := d.Remove("sub", true); err != core.ErrTypeMismatch {
		t.Fatalf("Remove(fileOnly=true) on directory = %v, want ErrTypeMismatch", err)
	}
	if err := d.Remove("sub", false); err != core.NoError {
		t.Fatalf("Remove(fileOnly=false) on directory = %v, want NoError", err)
	}
	if _, ok := d.FindHere("sub"); ok {
		t.Fatal("entry still present after Remove")
	}
}

func TestRemoveMissingFails(t *testing.T) {
	d := New()
	if err := d.Remove("nope", false); err != core.ErrNotFound {
		t.Fatalf("Remove() missing = %v, want ErrNotFound", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := New()
	d.Add("f1", 10, FileType)
	d.Add("dir1", 11, DirType)

	buf := make([]byte, core.DirectoryFileSize)
	d.encode(buf)
	got := decode(buf)

	e1, ok := got.FindHere("f1")
	if !ok || e1.Sector != 10 || e1.Type != FileType {
		t.Fatalf("decoded f1 = %+v, ok=%v", e1, ok)
	}
	e2, ok := got.FindHere("dir1")
	if !ok || e2.Sector != 11 || e2.Type != DirType {
		t.Fatalf("decoded dir1 = %+v, ok=%v", e2, ok)
	}
}

func TestFindAnywhereDescendsSubdirectories(t *testing.T) {
	leaf := New()
	leaf.Add("target", 42, FileType)

	root := New()
	root.Add("sub", 1, DirType)

	loadSub := func(sector core.SectorNum) *Directory {
		if sector == 1 {
			return leaf
		}
		return New()
	}

	e, ok := root.FindAnywhere(loadSub, "target")
	if !ok || e.Sector != 42 {
		t.Fatalf("FindAnywhere(target) = %+v, ok=%v", e, ok)
	}
}

func TestListFormatsEntries(t *testing.T) {
	root := New()
	root.Add("d", 1, DirType)

	sub := New()
	sub.Add("g", 2, FileType)

	loadSub := func(core.SectorNum) *Directory { return sub }

	out := root.List(0, true, loadSub)
	if !strings.Contains(out, "[D] d") {
		t.Fatalf("List() = %q, want to contain [D] d", out)
	}
	if !strings.Contains(out, "[F] g") {
		t.Fatalf("List() = %q, want to contain [F] g", out)
	}
}
