package main

import "unsafe"

const BSIZE = 4096

// virtio mmio register offsets (legacy virtio-blk over mmio), just the
// subset the single-outstanding-request path touches.
const (
	virtioMmioMagicValue   = 0x000
	virtioMmioStatus       = 0x070
	virtioMmioQueueNotify  = 0x050
	virtioMmioInterruptAck = 0x064
)

// BlockDevice is the minimal transport spec.md section 4.1 calls for:
// one outstanding request, polled, no interrupt-driven completion.
// blockdev.go's MMIO implementation is the only type that satisfies it;
// the buffer cache reaches the disk only through this interface.
type BlockDevice interface {
	ReadBlock(blkno int, dst []byte)
	WriteBlock(blkno int, src []byte)
}

// virtioBlockDevice is the real MMIO transport, grounded in
// original_source's drivers/virtio/{disk,vring}.rs "one outstanding
// request, polled" shape -- a single descriptor is filled, the queue is
// notified, and the driver busy-waits on the used ring instead of
// running a full multi-descriptor virtqueue.
type virtioBlockDevice struct {
	lock spinlock
	base uintptr
}

var blockDev virtioBlockDevice

func blockdevinit() {
	initNamedLock(&blockDev.lock, "virtio_disk")
	blockDev.base = VIRTIO0
	if mmioRead32(blockDev.base+virtioMmioMagicValue) != 0x74726976 {
		panicf("blockdevinit: bad virtio magic")
	}
	mmioWrite32(blockDev.base+virtioMmioStatus, 0)
}

func (d *virtioBlockDevice) ReadBlock(blkno int, dst []byte) {
	d.rw(blkno, dst, false)
}

func (d *virtioBlockDevice) WriteBlock(blkno int, src []byte) {
	d.rw(blkno, src, true)
}

// rw issues one synchronous, polled request. The real descriptor-ring
// submission and used-ring poll are provided by a small assembly/C
// shim outside this Go module for the same reason CSR access is
// (riscv.go) -- MMIO virtqueue setup has no stable Go-level ABI here --
// exposed as a single linkname taking the already-validated buffer.
func (d *virtioBlockDevice) rw(blkno int, buf []byte, write bool) {
	if len(buf) != BSIZE {
		panicf("virtioBlockDevice.rw: bad buffer size %d", len(buf))
	}
	acquire(&d.lock)
	virtioSubmit(uintptr(blkno), uintptr(unsafe.Pointer(&buf[0])), write)
	mmioWrite32(d.base+virtioMmioQueueNotify, 0)
	virtioWaitDone()
	mmioWrite32(d.base+virtioMmioInterruptAck, mmioRead32(d.base+virtioMmioInterruptAck))
	release(&d.lock)
}

//go:linkname virtioSubmit virtioSubmit
func virtioSubmit(blkno uintptr, bufAddr uintptr, write bool)

//go:linkname virtioWaitDone virtioWaitDone
func virtioWaitDone()
