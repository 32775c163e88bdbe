package main

// Hart is the per-hart scratch state every hart keeps outside the
// process table: which process it is currently running, its own
// scheduler context (used to switch back out of a process), and its
// interrupt-disable nesting depth for pushOff/popOff. Grounded on
// original_source/kernel/src/hart.rs.
type Hart struct {
	proc    *KProc  // process currently running on this hart, or nil
	context Context // scheduler's own context, switched into on sched()

	noff   int  // depth of pushOff nesting
	intena bool // were interrupts enabled before the outermost pushOff
}

var harts [MAXHART]Hart

// cpuid returns the current hart id. Must be called with interrupts
// disabled, since it is unsafe to move harts while reading r_tp().
func cpuid() int {
	return int(r_tp())
}

// myhart returns this hart's Hart struct. Caller must have interrupts
// disabled (see cpuid).
func myhart() *Hart {
	id := cpuid()
	return &harts[id]
}

// myproc returns the process running on the current hart, or nil if
// none. Safe to call with interrupts enabled: pushOff/popOff bracket the
// hartid lookup so nested callers (who may already hold pushOff'd locks)
// compose correctly.
func myproc() *KProc {
	pushOff()
	p := myhart().proc
	popOff()
	return p
}
