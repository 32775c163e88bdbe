package main

import "testing"

func TestEncodeDecodeDentryRoundTrip(t *testing.T) {
	var buf [direntSize]byte
	encodeDentry(buf[:], 42, "hello.txt")

	inum, name := decodeDentry(buf[:])
	if inum != 42 || name != "hello.txt" {
		t.Fatalf("decodeDentry = (%d, %q), want (42, %q)", inum, name, "hello.txt")
	}
}

func TestEncodeDentryZeroesTrailingBytes(t *testing.T) {
	var buf [direntSize]byte
	for i := range buf {
		buf[i] = 0xff
	}
	encodeDentry(buf[:], 1, "a")

	for i := 5; i < direntSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, buf[i])
		}
	}
}

func TestFindFreeDentrySlot(t *testing.T) {
	buf := make([]byte, direntSize*3)
	encodeDentry(buf[0:direntSize], 5, "a")
	encodeDentry(buf[2*direntSize:3*direntSize], 7, "b")

	idx := findFreeDentrySlot(buf)
	if idx != 1 {
		t.Fatalf("findFreeDentrySlot = %d, want 1", idx)
	}
}

func TestFindDentryByName(t *testing.T) {
	buf := make([]byte, direntSize*2)
	encodeDentry(buf[0:direntSize], 5, "foo")
	encodeDentry(buf[direntSize:2*direntSize], 7, "bar")

	if idx := findDentryByName(buf, "bar"); idx != 1 {
		t.Fatalf("findDentryByName(bar) = %d, want 1", idx)
	}
	if idx := findDentryByName(buf, "missing"); idx != -1 {
		t.Fatalf("findDentryByName(missing) = %d, want -1", idx)
	}
}
