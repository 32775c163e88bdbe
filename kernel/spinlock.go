package main

import _ "unsafe"

//go:linkname sync_barrier sync_barrier
func sync_barrier()

//go:linkname sync_test_and_set sync_test_and_set
func sync_test_and_set(addr *uint32) uint32

//go:linkname sync_release sync_release
func sync_release(addr *uint32)

// spinlock is a test-and-set mutual-exclusion primitive for kernel data
// structures (spec.md section 5). Acquisition disables interrupts on the
// local hart; release restores them iff this was the outermost
// acquisition. Re-acquiring a lock already held by the current hart is a
// programmer error and panics rather than deadlocking silently.
type spinlock struct {
	locked uint32
	name   string
	cpu    int // hartid holding the lock, valid only while locked
}

func initlock(lk *spinlock) {
	lk.locked = 0
	lk.cpu = -1
}

func initNamedLock(lk *spinlock, name string) {
	initlock(lk)
	lk.name = name
}

func holding(lk *spinlock) bool {
	return lk.locked == 1 && lk.cpu == cpuid()
}

func acquire(lk *spinlock) {
	pushOff()
	if holding(lk) {
		panicf("acquire: %s already held by hart %d", lk.name, lk.cpu)
	}
	for sync_test_and_set(&lk.locked) == 1 {
		// spin; a real build issues a pause-equivalent instruction here.
	}
	sync_barrier()
	lk.cpu = cpuid()
}

func release(lk *spinlock) {
	if !holding(lk) {
		panicf("release: %s not held by hart %d", lk.name, cpuid())
	}
	lk.cpu = -1
	sync_release(&lk.locked)
	popOff()
}

// pushOff/popOff nest disable/enable of interrupts around critical
// sections, xv6-style: only the outermost acquire turns interrupts back
// on at the matching release.
func pushOff() {
	old := intr_get()
	intr_off()
	h := myhart()
	if h.noff == 0 {
		h.intena = old
	}
	h.noff++
}

func popOff() {
	h := myhart()
	if intr_get() {
		panicf("popOff: interruptible")
	}
	if h.noff < 1 {
		panicf("popOff: unbalanced")
	}
	h.noff--
	if h.noff == 0 && h.intena {
		intr_on()
	}
}
