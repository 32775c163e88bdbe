package main

import "unsafe"

var kernel_pagetable pagetable_t

//go:linkname get_etext get_etext
func get_etext() uintptr

// trampolineCode is the position-independent trampoline page's contents,
// written once at boot and mapped at TRAMPOLINE in every address space
// (spec.md section 4.3, GLOSSARY "Trampoline"). Its actual machine code
// lives outside this Go module for the same reason CSR access does
// (riscv.go) -- uentry/uret are hand-written assembly, exposed here only
// as the physical page the linker placed them at.
//
//go:linkname trampolineFrame trampolineFrame
var trampolineFrame uintptr

func kvminit() {
	kernel_pagetable = pagetable_t(kalloc())
	if kernel_pagetable == 0 {
		panicf("kvminit: out of memory")
	}
	printf("kernel_pagetable at %x\n", uintptr(kernel_pagetable))

	kvmmap(UART0, UART0, PGSIZE, PTE_R|PTE_W)
	kvmmap(VIRTIO0, VIRTIO0, PGSIZE, PTE_R|PTE_W)
	kvmmap(PLIC, PLIC, 0x400000, PTE_R|PTE_W)
	kvmmap(KERNBASE, KERNBASE, get_etext()-KERNBASE, PTE_R|PTE_X)
	kvmmap(get_etext(), get_etext(), PHYSTOP-get_etext(), PTE_R|PTE_W)
	kvmmap(TRAMPOLINE, trampolineFrame, PGSIZE, PTE_R|PTE_X)
}

// kvminithart installs pagetable as the current hart's translation root
// and flushes the TLB. Generalized from the teacher's opaque
// go:linkname kvminithart() into real Go built from the smaller CSR
// primitives riscv.go exposes, now that satp/sfence are reachable from
// Go at all.
func kvminithart(pagetable pagetable_t) {
	sfence_vma()
	w_satp(MAKE_SATP(pagetable))
	sfence_vma()
}

func walk(pagetable pagetable_t, va uintptr, alloc bool) *pte_t {
	if va >= MAXVA {
		panicf("walk: va %x out of range", va)
	}

	for level := 2; level > 0; level-- {
		idx := PX(level, va)
		pte_ptr := (*pte_t)(unsafe.Pointer(uintptr(pagetable) + idx*8))

		if (*pte_ptr & PTE_V) != 0 {
			pagetable = pagetable_t(PTE2PA(*pte_ptr))
		} else {
			if !alloc {
				return nil
			}

			new_page := kalloc()
			if new_page == 0 {
				return nil
			}

			*pte_ptr = PA2PTE(new_page) | PTE_V
			pagetable = pagetable_t(new_page)
		}
	}

	idx0 := PX(0, va)
	return (*pte_t)(unsafe.Pointer(uintptr(pagetable) + idx0*8))
}

// walkaddr looks up va in pagetable and returns the backing physical
// address, or 0 if unmapped or not user-accessible.
func walkaddr(pagetable pagetable_t, va uintptr) uintptr {
	if va >= MAXVA {
		return 0
	}
	pte := walk(pagetable, va, false)
	if pte == nil || *pte&PTE_V == 0 || *pte&PTE_U == 0 {
		return 0
	}
	return PTE2PA(*pte)
}

func kvmmap(va uintptr, pa uintptr, sz uintptr, perm int) {
	if mappages(kernel_pagetable, va, sz, pa, perm) != 0 {
		panicf("kvmmap: failed va=%x pa=%x sz=%x", va, pa, sz)
	}
}

// mappages walks pagetable allocating intermediate nodes on demand and
// installs perm|PTE_V for every page in [va, va+size). Fails (returns
// -1) on exhaustion or if any page in the range is already mapped,
// whatever its flags (spec.md section 4.4).
func mappages(pagetable pagetable_t, va uintptr, size uintptr, pa uintptr, perm int) int {
	a := PGGROUNDDOWN(va)
	last := PGGROUNDDOWN(va + size - 1)
	for {
		pte := walk(pagetable, a, true)
		if pte == nil {
			return -1
		}
		if *pte&PTE_V != 0 {
			return -1
		}
		*pte = PA2PTE(pa) | pte_t(perm|PTE_V)
		if a == last {
			break
		}
		a += PGSIZE
		pa += PGSIZE
	}
	return 0
}

// uvmunmap removes npages mappings starting at va, which must be
// page-aligned, and frees the backing frames iff freeFrames is set.
// Every page in the range must currently be mapped (spec.md section 4.4);
// an unmapped page in the middle of the range is a programmer error.
func uvmunmap(pagetable pagetable_t, va uintptr, npages int, freeFrames bool) {
	if va%PGSIZE != 0 {
		panicf("uvmunmap: unaligned va %x", va)
	}

	for a := va; a < va+uintptr(npages)*PGSIZE; a += PGSIZE {
		pte := walk(pagetable, a, false)
		if pte == nil {
			panicf("uvmunmap: walk returned nil")
		}
		if *pte&PTE_V == 0 {
			panicf("uvmunmap: not mapped at %x", a)
		}
		if freeFrames {
			pa := PTE2PA(*pte)
			kfree(pa)
		}
		*pte = 0
	}
}

// uvmcreate allocates a fresh, zeroed root page table for a new address
// space.
func uvmcreate() pagetable_t {
	pt := pagetable_t(kalloc())
	if pt == 0 {
		return 0
	}
	return pt
}

// uvmfree unmaps [0, usedBytes) (freeing backing frames) and then frees
// the page table itself, used on exit and when exec replaces an address
// space. Every other leaf mapping (mmap regions, trampoline, trapframe)
// must already be unmapped: freewalk panics on any leaf it finds.
func uvmfree(pagetable pagetable_t, usedBytes uintptr) {
	if usedBytes > 0 {
		npages := int(PGROUNDUP(usedBytes) / PGSIZE)
		uvmunmap(pagetable, 0, npages, true)
	}
	freewalk(pagetable)
}

func freewalk(pagetable pagetable_t) {
	for i := uintptr(0); i < 512; i++ {
		pte := (*pte_t)(unsafe.Pointer(uintptr(pagetable) + i*8))
		if *pte&PTE_V != 0 && *pte&(PTE_R|PTE_W|PTE_X) == 0 {
			// this PTE points to a lower-level page table.
			child := PTE2PA(*pte)
			freewalk(pagetable_t(child))
			*pte = 0
		} else if *pte&PTE_V != 0 {
			panicf("freewalk: leaf PTE still mapped")
		}
	}
	kfree(uintptr(pagetable))
}

// uvmcopy duplicates every mapped page in [0, sz) of src into dst by
// allocating a fresh frame and copying the contents -- copy-on-write is
// explicitly not required (spec.md section 4.4). Used by fork.
func uvmcopy(src, dst pagetable_t, sz uintptr) bool {
	return uvmcopyRange(src, dst, 0, sz)
}

// uvmcopyRange is uvmcopy generalized to an arbitrary [begin, end) page
// range, used by fork to additionally duplicate mmap regions, which
// don't start at virtual address 0. On failure it unwinds what it
// already mapped in dst so the caller sees an all-or-nothing result.
func uvmcopyRange(src, dst pagetable_t, begin, end uintptr) bool {
	var i uintptr
	for i = begin; i < end; i += PGSIZE {
		pte := walk(src, i, false)
		if pte == nil || *pte&PTE_V == 0 {
			panicf("uvmcopyRange: page not present at %x", i)
		}
		pa := PTE2PA(*pte)
		perm := int(*pte) & 0xff

		mem := kalloc()
		if mem == 0 {
			goto failed
		}
		memmove(mem, pa, uint(PGSIZE))
		if mappages(dst, i, PGSIZE, mem, perm) != 0 {
			kfree(mem)
			goto failed
		}
	}
	return true

failed:
	uvmunmap(dst, begin, int((i-begin)/PGSIZE), true)
	return false
}

// copyout copies len(src) bytes from kernel memory into the user
// address space at dstva, walking the page table explicitly one page at
// a time. Returns false on any fault (spec.md section 4.6), which
// handlers convert to a -1 syscall return.
func copyout(pagetable pagetable_t, dstva uintptr, src []byte) bool {
	n := len(src)
	off := 0
	for n > 0 {
		va0 := PGGROUNDDOWN(dstva)
		pa0 := walkaddr(pagetable, va0)
		if pa0 == 0 {
			return false
		}
		pgoff := dstva - va0
		chunk := PGSIZE - pgoff
		if uintptr(n) < chunk {
			chunk = uintptr(n)
		}
		for i := uintptr(0); i < chunk; i++ {
			*(*byte)(unsafe.Pointer(pa0 + pgoff + i)) = src[off+int(i)]
		}
		n -= int(chunk)
		off += int(chunk)
		dstva = va0 + PGSIZE
	}
	return true
}

// copyin is copyout's mirror: reads len(dst) bytes out of the user
// address space starting at srcva into dst.
func copyin(pagetable pagetable_t, dst []byte, srcva uintptr) bool {
	n := len(dst)
	off := 0
	for n > 0 {
		va0 := PGGROUNDDOWN(srcva)
		pa0 := walkaddr(pagetable, va0)
		if pa0 == 0 {
			return false
		}
		pgoff := srcva - va0
		chunk := PGSIZE - pgoff
		if uintptr(n) < chunk {
			chunk = uintptr(n)
		}
		for i := uintptr(0); i < chunk; i++ {
			dst[off+int(i)] = *(*byte)(unsafe.Pointer(pa0 + pgoff + i))
		}
		n -= int(chunk)
		off += int(chunk)
		srcva = va0 + PGSIZE
	}
	return true
}

// copyinstr copies a NUL-terminated string from the user address space
// at srcva into dst, stopping at the first NUL or when dst fills up.
// Returns false if no NUL was found before dst filled or a page faulted.
func copyinstr(pagetable pagetable_t, dst []byte, srcva uintptr) bool {
	got := 0
	max := len(dst)
	for got < max {
		va0 := PGGROUNDDOWN(srcva)
		pa0 := walkaddr(pagetable, va0)
		if pa0 == 0 {
			return false
		}
		pgoff := srcva - va0
		for pgoff < PGSIZE && got < max {
			c := *(*byte)(unsafe.Pointer(pa0 + pgoff))
			dst[got] = c
			got++
			pgoff++
			if c == 0 {
				return true
			}
		}
		srcva = va0 + PGSIZE
	}
	return false
}
