package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const p = PGSIZE

func regions(begins ...uintptr) []mmapRegion {
	// begins come in (begin, end) pairs expressed in page units relative
	// to MMAP_BEGIN, for readability in test tables.
	out := make([]mmapRegion, 0, len(begins)/2)
	for i := 0; i < len(begins); i += 2 {
		out = append(out, mmapRegion{
			Begin: MMAP_BEGIN + begins[i]*p,
			End:   MMAP_BEGIN + begins[i+1]*p,
		})
	}
	return out
}

func TestMmapMergingScenario(t *testing.T) {
	var l mmapList

	steps := []struct {
		hint, length uintptr
		want         uintptr
		wantOK       bool
	}{
		{MMAP_BEGIN + 4*p, 3 * p, MMAP_BEGIN + 4*p, true},
		{MMAP_BEGIN + 10*p, 2 * p, MMAP_BEGIN + 10*p, true},
		{MMAP_BEGIN + 2*p, 2 * p, MMAP_BEGIN + 2*p, true},
		{MMAP_BEGIN + 12*p, 1 * p, MMAP_BEGIN + 12*p, true},
		{MMAP_BEGIN + 7*p, 3 * p, MMAP_BEGIN + 7*p, true},
		{MMAP_BEGIN + 0, 2 * p, MMAP_BEGIN + 0, true},
		{0, 10 * p, MMAP_BEGIN + 13*p, true},
	}

	for i, s := range steps {
		got, ok := l.mmapPlace(s.hint, s.length)
		if ok != s.wantOK || got != s.want {
			t.Fatalf("step %d: mmapPlace(%x, %x) = (%x, %v), want (%x, %v)",
				i, s.hint, s.length, got, ok, s.want, s.wantOK)
		}
	}

	want := regions(0, 23)
	if diff := cmp.Diff(want, l.regions); diff != "" {
		t.Fatalf("final region list mismatch (-want +got):\n%s", diff)
	}
}

func TestMmapOverlapRejected(t *testing.T) {
	var l mmapList

	begin, ok := l.mmapPlace(MMAP_BEGIN, 2*p)
	if !ok || begin != MMAP_BEGIN {
		t.Fatalf("first mmap failed: got (%x, %v)", begin, ok)
	}

	_, ok = l.mmapPlace(MMAP_BEGIN+p, 2*p)
	if ok {
		t.Fatalf("overlapping mmap should have failed")
	}

	want := regions(0, 2)
	if diff := cmp.Diff(want, l.regions); diff != "" {
		t.Fatalf("list changed after rejected mmap (-want +got):\n%s", diff)
	}
}

func TestMmapUnalignedRejected(t *testing.T) {
	var l mmapList
	_, ok := l.mmapPlace(MMAP_BEGIN+123, 2*p)
	if ok {
		t.Fatalf("unaligned hint should have failed")
	}
	if len(l.regions) != 0 {
		t.Fatalf("list should remain empty, got %v", l.regions)
	}
}

func TestMunmapSplit(t *testing.T) {
	l := mmapList{regions: regions(15, 23)}

	l.munmap(MMAP_BEGIN+17*p, 2*p)

	want := regions(15, 17, 19, 23)
	if diff := cmp.Diff(want, l.regions); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
}

func TestMunmapNoOpOnUnmappedPortion(t *testing.T) {
	l := mmapList{regions: regions(15, 23)}
	before := l.clone()

	l.munmap(MMAP_BEGIN+100*p, 2*p)

	if diff := cmp.Diff(before.regions, l.regions); diff != "" {
		t.Fatalf("munmap of unmapped region should be a no-op (-before +after):\n%s", diff)
	}
}

func TestMmapZeroOrUnalignedLengthRejected(t *testing.T) {
	var l mmapList
	if _, ok := l.mmapPlace(0, 0); ok {
		t.Fatalf("zero length should be rejected")
	}
	if _, ok := l.mmapPlace(0, PGSIZE+1); ok {
		t.Fatalf("non-multiple-of-page length should be rejected")
	}
}

func TestMmapListNeverLeavesAbuttingRegions(t *testing.T) {
	var l mmapList
	ops := []struct{ hint, length uintptr }{
		{MMAP_BEGIN, 2 * p},
		{MMAP_BEGIN + 2*p, 2 * p}, // exactly abutting, must merge
		{MMAP_BEGIN + 8*p, 2 * p},
		{MMAP_BEGIN + 4*p, 4 * p}, // bridges [0,4) and [8,10) into one region
	}
	for _, o := range ops {
		if _, ok := l.mmapPlace(o.hint, o.length); !ok {
			t.Fatalf("mmapPlace(%x, %x) unexpectedly failed", o.hint, o.length)
		}
	}
	for i := 1; i < len(l.regions); i++ {
		if l.regions[i-1].End >= l.regions[i].Begin {
			t.Fatalf("regions %d and %d abut or overlap: %v", i-1, i, l.regions)
		}
	}
	want := regions(0, 10)
	if diff := cmp.Diff(want, l.regions); diff != "" {
		t.Fatalf("expected a single merged region (-want +got):\n%s", diff)
	}
}
