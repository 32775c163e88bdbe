package main

import "unsafe"

const NPROC = 64

// procstate matches spec.md section 3's PCB lifecycle exactly:
// Unused -> Embryo -> Runnable -> Running <-> Sleeping -> Zombie -> Unused.
type procstate int

const (
	Unused procstate = iota
	Embryo
	Runnable
	Running
	Sleeping
	Zombie
)

// Context holds the callee-saved registers plus sp/ra that swtch
// preserves across a context switch (spec.md section 4.5).
type Context struct {
	ra uintptr
	sp uintptr

	s0  uintptr
	s1  uintptr
	s2  uintptr
	s3  uintptr
	s4  uintptr
	s5  uintptr
	s6  uintptr
	s7  uintptr
	s8  uintptr
	s9  uintptr
	s10 uintptr
	s11 uintptr
}

// KProc is the process control block (spec.md section 3).
type KProc struct {
	lock spinlock

	// Protected by lock:
	state    procstate
	chan_    uintptr // sleep channel, valid only while state == Sleeping
	killed   bool
	exitCode int32

	// Set once at allocation, read afterwards without the lock:
	pid int

	// Protected by ptableLock:
	parent int // pid of parent, 0 if none

	// Private to the owning process:
	kstack    uintptr
	context   Context
	pagetable pagetable_t
	trapframe uintptr // physical address of this process's trapframe page

	sz       uintptr  // end of code+data+bss+heap, the brk-growable region
	heapBase uintptr  // first valid brk() target, end of the initial image
	mm       mmapList // dynamic mmap region list

	cwd  int32 // inode number of current directory
	name [16]byte

	heldBuf *buf // buffer locked by this process's last get_block syscall, if any
}

var proc [NPROC]KProc
var ptableLock spinlock // guards pid allocation and parent/child bookkeeping
var nextPid = 1
var initproc *KProc
var lastScheduled int

func procinit() {
	initNamedLock(&ptableLock, "ptable")
	for i := 0; i < NPROC; i++ {
		p := &proc[i]
		initNamedLock(&p.lock, "proc")

		kstack := kalloc()
		if kstack == 0 {
			panicf("procinit: kalloc failed")
		}
		kvmmap(KSTACK(i), kstack, PGSIZE, PTE_R|PTE_W)
		p.kstack = KSTACK(i)
		p.state = Unused
	}
}

// allocPid hands out dense, monotonically increasing pids (spec.md
// section 3).
func allocPid() int {
	acquire(&ptableLock)
	pid := nextPid
	nextPid++
	release(&ptableLock)
	return pid
}

//go:linkname swtch swtch
func swtch(old *Context, new *Context)

// forkretTrampoline is the address of a small assembly stub that calls
// forkret with the right calling convention for a context swtch'd into
// for the first time -- swtch "returns" by popping ra and jumping to
// it, so ra must point at real code, not a Go closure. Generalizes the
// teacher's GetTaskStubAddr/TaskStub pair.
//
//go:linkname forkretTrampoline forkretTrampoline
func forkretTrampoline() uintptr

var firstProcScheduled = true

// forkret runs the first time a newly allocated process is scheduled:
// it releases the lock allocproc left held, writes a fresh filesystem
// (prepareRoot) the first time any process runs, then falls into
// usertrapret to enter
// user mode for the first time.
//
//export forkret
func forkret() {
	p := myproc()
	release(&p.lock)

	if firstProcScheduled {
		firstProcScheduled = false
		prepareRoot()
	}

	usertrapret()
}

// allocproc finds an Unused slot, marks it Embryo, and sets up enough
// state (trapframe page, page table, kernel context pointing at
// forkret) that the scheduler can safely swtch into it once Runnable.
// Returns nil on exhaustion. The returned PCB's lock is held.
func allocproc() *KProc {
	var p *KProc
	for i := 0; i < NPROC; i++ {
		p = &proc[i]
		acquire(&p.lock)
		if p.state == Unused {
			goto found
		}
		release(&p.lock)
	}
	return nil

found:
	p.pid = allocPid()
	p.state = Embryo
	p.killed = false
	p.exitCode = 0
	p.mm = mmapList{}

	tf := kalloc()
	if tf == 0 {
		p.state = Unused
		release(&p.lock)
		return nil
	}
	p.trapframe = tf

	pt := uvmcreate()
	if pt == 0 {
		kfree(p.trapframe)
		p.state = Unused
		release(&p.lock)
		return nil
	}
	p.pagetable = pt
	if mappages(pt, TRAMPOLINE, PGSIZE, trampolineFrame, PTE_R|PTE_X) != 0 ||
		mappages(pt, TRAPFRAME, PGSIZE, p.trapframe, PTE_R|PTE_W) != 0 {
		freeprocLocked(p)
		release(&p.lock)
		return nil
	}

	p.context = Context{}
	p.context.ra = forkretTrampoline()
	p.context.sp = p.kstack + PGSIZE

	return p
}

// freeproc releases every resource a process owns back to its owner
// pool (spec.md section 3's Zombie->Unused transition).
func freeproc(p *KProc) {
	acquire(&p.lock)
	freeprocLocked(p)
	release(&p.lock)
}

func freeprocLocked(p *KProc) {
	if p.trapframe != 0 {
		kfree(p.trapframe)
		p.trapframe = 0
	}
	if p.pagetable != 0 {
		uvmunmap(p.pagetable, TRAMPOLINE, 1, false)
		uvmunmap(p.pagetable, TRAPFRAME, 1, false)
		for _, r := range p.mm.regions {
			npages := int((r.End - r.Begin) / PGSIZE)
			uvmunmap(p.pagetable, r.Begin, npages, true)
		}
		uvmfree(p.pagetable, p.sz)
		p.pagetable = 0
	}
	if p.heldBuf != nil {
		putBlock(p.heldBuf)
		p.heldBuf = nil
	}
	p.sz = 0
	p.mm = mmapList{}
	p.pid = 0
	p.parent = 0
	p.name = [16]byte{}
	p.chan_ = 0
	p.killed = false
	p.state = Unused
}

// userinit creates the very first process, pid 1 ("init"), from the
// embedded boot payload (spec.md section 6's known-symbol user image).
// Hart 0 only, before the scheduler starts.
func userinit() {
	p := allocproc()
	if p == nil {
		panicf("userinit: allocproc failed")
	}
	initproc = p

	if !loadImage(p, bootPayload()) {
		panicf("userinit: loadImage failed")
	}

	safestrcpy(p.name[:], "initcode", len(p.name))
	p.cwd = 0 // root, resolved lazily once the filesystem is mounted
	p.parent = 0
	p.state = Runnable
	release(&p.lock)
}

// scheduler is the per-hart loop (spec.md section 4.5): pick a Runnable
// process round-robin from lastScheduled, swtch into it, and when it
// returns control reflect its new state and continue. The idle path
// issues wfi with interrupts enabled.
func scheduler() {
	h := myhart()
	for {
		found := false
		acquire(&ptableLock)
		start := lastScheduled
		for i := 0; i < NPROC; i++ {
			idx := (start + 1 + i) % NPROC
			p := &proc[idx]
			acquire(&p.lock)
			if p.state == Runnable {
				p.state = Running
				lastScheduled = idx
				h.proc = p

				release(&ptableLock)
				swtch(&h.context, &p.context)
				acquire(&ptableLock)

				h.proc = nil
				found = true
				release(&p.lock)
				break
			}
			release(&p.lock)
		}
		release(&ptableLock)

		if !found {
			intr_on()
			wfi()
		}
	}
}

// sched gives up the current process's turn and returns control to the
// scheduler loop. Caller must hold p.lock and have already set a state
// other than Running.
func sched() {
	p := myproc()
	if !holding(&p.lock) {
		panicf("sched: p.lock not held")
	}
	if p.state == Running {
		panicf("sched: still Running")
	}
	if intr_get() {
		panicf("sched: interruptible")
	}
	h := myhart()
	swtch(&p.context, &h.context)
}

// yield gives up the CPU voluntarily for one scheduling round.
func yield() {
	p := myproc()
	acquire(&p.lock)
	p.state = Runnable
	sched()
	release(&p.lock)
}

// chanOf derives a sleep-channel token from a kernel object's address;
// any stable, unique uintptr works (spec.md section 5).
func chanOf(p *KProc) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// sleep blocks the current process on chan, a caller-chosen token,
// until wakeup(chan) is called. The caller must hold lk, which is
// released while sleeping and reacquired before returning (spec.md
// section 5's "sleep always releases and reacquires its lock").
func sleep(chan_ uintptr, lk *spinlock) {
	p := myproc()

	if lk != &p.lock {
		acquire(&p.lock)
		release(lk)
	}

	p.chan_ = chan_
	p.state = Sleeping
	sched()
	p.chan_ = 0
	release(&p.lock)

	if lk != &p.lock {
		acquire(lk)
	}
}

// wakeup makes every process Sleeping on chan Runnable; no other state
// is affected.
func wakeup(chan_ uintptr) {
	me := myproc()
	for i := 0; i < NPROC; i++ {
		p := &proc[i]
		if p != me {
			acquire(&p.lock)
			if p.state == Sleeping && p.chan_ == chan_ {
				p.state = Runnable
			}
			release(&p.lock)
		}
	}
}

// fork clones the calling process: new pid, duplicated address space
// (every mapped user frame copied, not shared), cloned trapframe with
// the child's a0 forced to 0. Parent receives the child's pid; child
// starts Runnable (spec.md section 4.5).
func fork() int {
	p := myproc()

	np := allocproc()
	if np == nil {
		return -1
	}

	if !uvmcopy(p.pagetable, np.pagetable, p.sz) {
		freeprocLocked(np)
		release(&np.lock)
		return -1
	}
	for _, r := range p.mm.regions {
		if !uvmcopyRange(p.pagetable, np.pagetable, r.Begin, r.End) {
			freeprocLocked(np)
			release(&np.lock)
			return -1
		}
	}
	np.sz = p.sz
	np.heapBase = p.heapBase
	np.mm = p.mm.clone()
	np.cwd = p.cwd
	np.name = p.name

	*(*Trapframe)(unsafe.Pointer(np.trapframe)) = *(*Trapframe)(unsafe.Pointer(p.trapframe))
	tf := (*Trapframe)(unsafe.Pointer(np.trapframe))
	tf.A0 = 0 // fork returns 0 in the child

	childPid := np.pid

	acquire(&ptableLock)
	np.parent = p.pid
	release(&ptableLock)

	np.state = Runnable
	release(&np.lock)

	return childPid
}

// exit reparents every child to pid 1 (init), marks the caller Zombie
// with code, wakes its parent if sleeping in wait, and never returns
// (spec.md section 4.5).
func exit(code int) {
	p := myproc()
	if p == initproc {
		panicf("init exiting")
	}

	acquire(&ptableLock)
	reparentChildren(p)

	acquire(&p.lock)
	p.exitCode = int32(code)
	p.state = Zombie
	parentPid := p.parent
	release(&p.lock)

	wakeupByPid(parentPid)
	release(&ptableLock)

	acquire(&p.lock)
	sched()
	panicf("exit: sched returned")
}

func reparentChildren(p *KProc) {
	for i := 0; i < NPROC; i++ {
		c := &proc[i]
		acquire(&c.lock)
		if c.state != Unused && c.parent == p.pid {
			c.parent = 1
			if c.state == Zombie {
				wakeupByPid(1)
			}
		}
		release(&c.lock)
	}
}

// wakeupByPid wakes the process with the given pid if it is Sleeping on
// a channel equal to its own address, the convention wait() uses below.
// Callers hold ptableLock but not pp.lock, matching the lock order
// proc-table -> per-process.
func wakeupByPid(pid int) {
	for i := 0; i < NPROC; i++ {
		pp := &proc[i]
		if pp.pid == pid {
			acquire(&pp.lock)
			if pp.state == Sleeping && pp.chan_ == chanOf(pp) {
				pp.state = Runnable
			}
			release(&pp.lock)
			return
		}
	}
}

// wait blocks until some child is Zombie, copies its exit code out to
// the user address addr (skipped if addr == 0), frees it, and returns
// its pid. Returns -1 immediately if the caller has no children at all
// (spec.md section 4.5).
func wait(addr uintptr) int {
	p := myproc()

	acquire(&ptableLock)
	for {
		haveKids := false
		for i := 0; i < NPROC; i++ {
			c := &proc[i]
			acquire(&c.lock)
			if c.state != Unused && c.parent == p.pid {
				haveKids = true
				if c.state == Zombie {
					pid := c.pid
					code := c.exitCode
					release(&c.lock)
					release(&ptableLock)

					if addr != 0 {
						buf := []byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)}
						copyout(p.pagetable, addr, buf)
					}
					freeproc(c)
					return pid
				}
			}
			release(&c.lock)
		}

		if !haveKids || p.killed {
			release(&ptableLock)
			return -1
		}

		sleep(chanOf(p), &ptableLock)
	}
}
