package main

// Trapframe is per-process storage for user register state during
// kernel entry (spec.md section 3, GLOSSARY "Trap frame"). It is mapped
// at the fixed user virtual address TRAPFRAME so that the trampoline
// page -- identical code at identical virtual addresses in every
// address space -- can find it without any page-table-dependent
// relocation. Field order/layout matches what the trampoline's
// assembly save/restore sequence addresses by offset; reordering these
// fields requires updating that assembly in lockstep, the same
// constraint xv6's kernel/proc.h trapframe carries.
type Trapframe struct {
	// Fields the trampoline needs to re-enter the kernel:
	Kernel_satp   uintptr // kernel page table
	Kernel_sp     uintptr // top of process's kernel stack
	Kernel_trap   uintptr // usertrap()'s address
	Epc           uintptr // saved user program counter
	Kernel_hartid uintptr // saved kernel tp, for cpuid() while in kernel

	// User-saved registers:
	Ra  uintptr
	Sp  uintptr
	Gp  uintptr
	Tp  uintptr
	T0  uintptr
	T1  uintptr
	T2  uintptr
	S0  uintptr
	S1  uintptr
	A0  uintptr
	A1  uintptr
	A2  uintptr
	A3  uintptr
	A4  uintptr
	A5  uintptr
	A6  uintptr
	A7  uintptr
	S2  uintptr
	S3  uintptr
	S4  uintptr
	S5  uintptr
	S6  uintptr
	S7  uintptr
	S8  uintptr
	S9  uintptr
	S10 uintptr
	S11 uintptr
	T3  uintptr
	T4  uintptr
	T5  uintptr
	T6  uintptr

	// sstatus is not part of the trampoline's fixed offsets in xv6. No Go
	// code reads or writes this field: usertrapret sets SPP/SPIE by
	// writing the live sstatus CSR directly.
	Sstatus uintptr
}
