package main

import (
	"encoding/binary"
	"unsafe"
)

// kerr is a small sentinel result type in which zero is success. No
// function in this package returns it: kernel-internal functions report
// failure with a false bool or a -1 int, which the syscall handlers pass
// on as -1.
type kerr int32

const errOK kerr = 0

const (
	elfMagic        = 0x464c457f // "\x7fELF", little-endian
	elfProgLoad     = 1
	elfPhdrSize     = 56
	elfHdrSize      = 64
	maxLoadSegments = 16
)

type elfProgHeader struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

func parseElfProgHeader(b []byte) elfProgHeader {
	return elfProgHeader{
		Type:   binary.LittleEndian.Uint32(b[0:4]),
		Flags:  binary.LittleEndian.Uint32(b[4:8]),
		Off:    binary.LittleEndian.Uint64(b[8:16]),
		Vaddr:  binary.LittleEndian.Uint64(b[16:24]),
		Paddr:  binary.LittleEndian.Uint64(b[24:32]),
		Filesz: binary.LittleEndian.Uint64(b[32:40]),
		Memsz:  binary.LittleEndian.Uint64(b[40:48]),
		Align:  binary.LittleEndian.Uint64(b[48:56]),
	}
}

// loadImage builds a fresh address space for p from an ELF-like
// in-memory payload (spec.md section 4.5's exec): every PT_LOAD
// segment is mapped and copied, bss is zeroed out to Memsz, and a
// small fixed-size user stack is installed just below the heap
// window. The new pagetable is built in a side table and only
// installed on p once every step succeeds, so a failure never
// disturbs an address space already running (spec.md section 4.5:
// "On failure the caller's address space must be unchanged").
func loadImage(p *KProc, img []byte) bool {
	pagetable, sz, entry, ok := buildAddressSpace(img, p.trapframe)
	if !ok {
		return false
	}

	oldPagetable, oldSz, oldMm := p.pagetable, p.sz, p.mm
	p.pagetable = pagetable
	p.sz = sz
	p.heapBase = PGROUNDUP(sz)
	p.mm = mmapList{}

	tf := (*Trapframe)(unsafe.Pointer(p.trapframe))
	tf.Epc = entry
	tf.Sp = sz

	if oldPagetable != 0 {
		uvmunmap(oldPagetable, TRAMPOLINE, 1, false)
		uvmunmap(oldPagetable, TRAPFRAME, 1, false)
		for _, r := range oldMm.regions {
			uvmunmap(oldPagetable, r.Begin, int((r.End-r.Begin)/PGSIZE), true)
		}
		uvmfree(oldPagetable, oldSz)
	}
	return true
}

// buildAddressSpace parses img as a minimal ELF64 and maps its
// PT_LOAD segments, a guard-free user stack, and the fixed
// trampoline/trapframe pages (trapframePA is the process's existing
// trapframe page, which exec does not reallocate) into a brand new
// pagetable. Returns that pagetable, the resulting highwater address,
// and the entry point. Never touches any existing address space, so
// callers can always discard the result on failure.
func buildAddressSpace(img []byte, trapframePA uintptr) (pagetable_t, uintptr, uintptr, bool) {
	if len(img) < elfHdrSize || binary.LittleEndian.Uint32(img[0:4]) != elfMagic {
		return 0, 0, 0, false
	}
	entry := binary.LittleEndian.Uint64(img[24:32])
	phoff := binary.LittleEndian.Uint64(img[32:40])
	phnum := binary.LittleEndian.Uint16(img[56:58])
	if int(phnum) > maxLoadSegments {
		return 0, 0, 0, false
	}

	pt := uvmcreate()
	if pt == 0 {
		return 0, 0, 0, false
	}

	var maxva uintptr
	for i := 0; i < int(phnum); i++ {
		off := int(phoff) + i*elfPhdrSize
		if off+elfPhdrSize > len(img) {
			uvmfree(pt, maxva)
			return 0, 0, 0, false
		}
		ph := parseElfProgHeader(img[off : off+elfPhdrSize])
		if ph.Type != elfProgLoad {
			continue
		}
		if uintptr(ph.Vaddr)%PGSIZE != 0 {
			uvmfree(pt, maxva)
			return 0, 0, 0, false
		}

		perm := PTE_U | PTE_R
		if ph.Flags&0x1 != 0 {
			perm |= PTE_X
		}
		if ph.Flags&0x2 != 0 {
			perm |= PTE_W
		}

		memEnd := ph.Vaddr + ph.Memsz
		for a := PGGROUNDDOWN(uintptr(ph.Vaddr)); a < uintptr(memEnd); a += PGSIZE {
			mem := kalloc()
			if mem == 0 {
				uvmfree(pt, maxva)
				return 0, 0, 0, false
			}
			if mappages(pt, a, PGSIZE, mem, perm) != 0 {
				kfree(mem)
				uvmfree(pt, maxva)
				return 0, 0, 0, false
			}
		}

		segEnd := int(ph.Off + ph.Filesz)
		if segEnd > len(img) {
			uvmfree(pt, maxva)
			return 0, 0, 0, false
		}
		if !copyout(pt, uintptr(ph.Vaddr), img[ph.Off:segEnd]) {
			uvmfree(pt, maxva)
			return 0, 0, 0, false
		}

		if uintptr(memEnd) > maxva {
			maxva = uintptr(memEnd)
		}
	}

	sz := PGROUNDUP(maxva)
	for i := uintptr(0); i < USTACKPAGES; i++ {
		mem := kalloc()
		if mem == 0 {
			uvmfree(pt, sz)
			return 0, 0, 0, false
		}
		if mappages(pt, sz, PGSIZE, mem, PTE_R|PTE_W|PTE_U) != 0 {
			kfree(mem)
			uvmfree(pt, sz)
			return 0, 0, 0, false
		}
		sz += PGSIZE
	}

	if mappages(pt, TRAMPOLINE, PGSIZE, trampolineFrame, PTE_R|PTE_X) != 0 ||
		mappages(pt, TRAPFRAME, PGSIZE, trapframePA, PTE_R|PTE_W) != 0 {
		uvmfree(pt, sz)
		return 0, 0, 0, false
	}

	return pt, sz, uintptr(entry), true
}

// execSyscall implements syscall 41: reads a path from the trap frame,
// resolves it through the filesystem, and replaces the calling
// process's address space in place. Argument marshalling beyond the
// path is out of scope (spec.md's Non-goal on full POSIX compatibility
// covers argv/envp passing).
func execSyscall(p *KProc, pathVA uintptr) int {
	var pathBuf [60]byte
	if !copyinstr(p.pagetable, pathBuf[:], pathVA) {
		return -1
	}
	path := gostring(pathBuf[:])

	inum := pathToInode(path)
	if inum < 0 {
		return -1
	}
	ip := inodeGet(inum)
	if ip == nil {
		return -1
	}

	img := make([]byte, ip.size)
	n := inodeReadData(ip, 0, img, len(img))
	inodePut(ip)
	if n != len(img) {
		return -1
	}

	if !loadImage(p, img) {
		return -1
	}
	return 0
}
