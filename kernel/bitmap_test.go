package main

import "testing"

func TestBitmapFindFreeLowestClearBit(t *testing.T) {
	bits := make([]byte, 4)
	bits[0] = 0xff
	bits[1] = 0b00000001

	idx, ok := bitmapFindFree(bits)
	if !ok || idx != 9 {
		t.Fatalf("bitmapFindFree = (%d, %v), want (9, true)", idx, ok)
	}
}

func TestBitmapFindFreeAllSetFails(t *testing.T) {
	bits := []byte{0xff, 0xff, 0xff}
	if _, ok := bitmapFindFree(bits); ok {
		t.Fatalf("expected no free bit")
	}
}

func TestBitmapSetClearRoundTrip(t *testing.T) {
	bits := make([]byte, 2)
	bitmapSet(bits, 5)
	if !bitmapIsSet(bits, 5) {
		t.Fatalf("bit 5 should be set")
	}
	if bitmapIsSet(bits, 4) || bitmapIsSet(bits, 6) {
		t.Fatalf("neighbouring bits should be untouched")
	}
	bitmapClear(bits, 5)
	if bitmapIsSet(bits, 5) {
		t.Fatalf("bit 5 should be cleared")
	}
}

func TestBitmapBlockOfWrapsAtBlockBoundary(t *testing.T) {
	bitsPerBlock := 8 * BSIZE
	blk, off := bitmapBlockOf(3, bitsPerBlock+10)
	if blk != 4 || off != 10 {
		t.Fatalf("bitmapBlockOf = (%d, %d), want (4, 10)", blk, off)
	}
}
