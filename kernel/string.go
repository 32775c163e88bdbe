package main

import "unsafe"

func memset(dst uintptr, c int, n uint) {
	for i := uint(0); i < n; i++ {
		*(*byte)(unsafe.Pointer(dst + uintptr(i))) = byte(c)
	}
}

// memmove copies n bytes from src to dst. The two ranges may overlap;
// direction of the copy is chosen the way the C library's memmove is,
// so that an overlapping copy (e.g. shifting a directory block's tail
// down after a delete) still produces the right result.
func memmove(dst, src uintptr, n uint) {
	if dst == src || n == 0 {
		return
	}
	if dst < src {
		for i := uint(0); i < n; i++ {
			*(*byte)(unsafe.Pointer(dst + uintptr(i))) = *(*byte)(unsafe.Pointer(src + uintptr(i)))
		}
	} else {
		for i := n; i > 0; i-- {
			*(*byte)(unsafe.Pointer(dst + uintptr(i-1))) = *(*byte)(unsafe.Pointer(src + uintptr(i-1)))
		}
	}
}

func memcmp(a, b uintptr, n uint) int {
	for i := uint(0); i < n; i++ {
		ca := *(*byte)(unsafe.Pointer(a + uintptr(i)))
		cb := *(*byte)(unsafe.Pointer(b + uintptr(i)))
		if ca != cb {
			return int(ca) - int(cb)
		}
	}
	return 0
}

// safestrcpy copies at most max-1 bytes of src plus a NUL terminator
// into dst, xv6-style: never writes past max bytes even if src has no
// NUL within it.
func safestrcpy(dst []byte, src string, max int) {
	if max <= 0 {
		return
	}
	i := 0
	for ; i < max-1 && i < len(src); i++ {
		dst[i] = src[i]
	}
	dst[i] = 0
}

// physBytes views n bytes of physical memory starting at pa as a Go
// []byte, for code (dtb.go, boot.go) that wants to read a
// firmware-supplied blob with ordinary slice/encoding-binary operations
// instead of byte-at-a-time uintptr arithmetic. The slice aliases real
// memory; callers must not retain it past the blob's lifetime.
func physBytes(pa uintptr, n int) []byte {
	if n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(pa)), n)
}

// gostring turns a NUL-padded fixed-size byte slice (as used by on-disk
// directory entry names) into a Go string, stopping at the first NUL.
func gostring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
