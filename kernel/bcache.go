package main

import "unsafe"

// NBUF is the fixed buffer pool size; spec.md section 4.7 assumes
// N>=16.
const NBUF = 32

// buf is one buffer cache slot (spec.md section 3): a 4096-byte block
// shadow plus its cache bookkeeping. The LRU chain is represented as a
// doubly linked list embedded in the slots themselves, xv6-style.
type buf struct {
	lock  spinlock
	dev   int
	blkno int
	valid bool
	dirty bool
	refs  int
	data  [BSIZE]byte

	prev *buf
	next *buf
}

type bufCache struct {
	lock spinlock
	bufs [NBUF]buf
	head buf // head.next is MRU, head.prev is LRU
}

var bcache bufCache
var dev BlockDevice

func bcacheinit() {
	initNamedLock(&bcache.lock, "bcache")
	blockdevinit()
	dev = &blockDev

	bcache.head.prev = &bcache.head
	bcache.head.next = &bcache.head
	for i := range bcache.bufs {
		b := &bcache.bufs[i]
		initNamedLock(&b.lock, "buffer")
		b.next = bcache.head.next
		b.prev = &bcache.head
		bcache.head.next.prev = b
		bcache.head.next = b
	}
}

// bcacheChan is the sleep channel a get_block caller waits on when every
// slot is pinned; putBlock wakes it whenever a buffer's refcount drops
// to zero (spec.md section 4.7: "if no evictable buffer exists, sleep
// on the pool").
func bcacheChan() uintptr {
	return uintptr(unsafe.Pointer(&bcache))
}

// getBlock returns the locked buffer for (d, blkno), reading it from
// disk if it isn't already cached (spec.md section 4.7). Buffer
// uniqueness (at most one slot per (dev, blkno)) is maintained by
// always scanning the full chain before evicting. If every slot is
// currently pinned, the caller sleeps on the pool until putBlock frees
// one, rather than panicking.
func getBlock(d int, blkno int) *buf {
	acquire(&bcache.lock)

	for {
		for b := bcache.head.next; b != &bcache.head; b = b.next {
			if b.dev == d && b.blkno == blkno {
				b.refs++
				release(&bcache.lock)
				acquire(&b.lock)
				return b
			}
		}

		for b := bcache.head.prev; b != &bcache.head; b = b.prev {
			if b.refs == 0 {
				if b.dirty {
					writeBufToDisk(b)
				}
				b.dev = d
				b.blkno = blkno
				b.valid = false
				b.dirty = false
				b.refs = 1
				release(&bcache.lock)
				acquire(&b.lock)
				if !b.valid {
					dev.ReadBlock(blkno, b.data[:])
					b.valid = true
				}
				return b
			}
		}

		sleep(bcacheChan(), &bcache.lock)
	}
}

// putBlock releases the per-buffer lock and drops a reference, moving
// the buffer to the MRU end of the chain when its refcount reaches
// zero so it becomes the last evicted (spec.md section 4.7).
func putBlock(b *buf) {
	release(&b.lock)

	acquire(&bcache.lock)
	b.refs--
	if b.refs == 0 {
		b.next.prev = b.prev
		b.prev.next = b.next
		b.next = bcache.head.next
		b.prev = &bcache.head
		bcache.head.next.prev = b
		bcache.head.next = b
		wakeup(bcacheChan())
	}
	release(&bcache.lock)
}

// writeBlock marks b dirty; the actual disk write is lazy, performed
// on eviction or by flushBuffer.
func writeBlock(b *buf) {
	b.dirty = true
}

func writeBufToDisk(b *buf) {
	dev.WriteBlock(b.blkno, b.data[:])
	b.dirty = false
}

// flushBuffer forces the first n dirty buffers in MRU order to disk
// (spec.md section 4.7); used so that "after flush_buffer(n) returns,
// all affected buffers are durable" (spec.md section 5) holds.
func flushBuffer(n int) {
	acquire(&bcache.lock)
	flushed := 0
	for b := bcache.head.next; b != &bcache.head && flushed < n; b = b.next {
		if b.dirty {
			acquire(&b.lock)
			writeBufToDisk(b)
			release(&b.lock)
			flushed++
		}
	}
	release(&bcache.lock)
}
