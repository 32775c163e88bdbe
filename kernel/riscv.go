package main

import _ "unsafe"

const PGSIZE = uintptr(4096)
const MAXVA = uintptr(1) << 38

const (
	PTE_V = 1 << 0 // Valid
	PTE_R = 1 << 1 // Readable
	PTE_W = 1 << 2 // Writable
	PTE_X = 1 << 3 // Executable
	PTE_U = 1 << 4 // User
	PTE_G = 1 << 5 // Global
	PTE_A = 1 << 6 // Accessed
	PTE_D = 1 << 7 // Dirty
)

type pte_t uintptr
type pagetable_t uintptr

func PX(level int, va uintptr) uintptr { return (va >> (12 + uintptr(level)*9)) & 0x1FF }
func PTE2PA(pte pte_t) uintptr         { return (uintptr(pte) >> 10) << 12 }
func PA2PTE(pa uintptr) pte_t          { return pte_t((pa >> 12) << 10) }

func PGGROUNDDOWN(a uintptr) uintptr { return a & ^(PGSIZE - 1) }
func PGGROUNDUP(a uintptr) uintptr   { return (a + PGSIZE - 1) & ^(PGSIZE - 1) }

// sstatus, sip, sie bits used by the trap plane and spinlock irq-off logic.
const (
	SSTATUS_SPP = 1 << 8  // previous mode, 1 = supervisor
	SSTATUS_SPIE = 1 << 5 // supervisor previous interrupt enable
	SSTATUS_SIE  = 1 << 1 // supervisor interrupt enable

	SIE_SEIE = 1 << 9 // external
	SIE_STIE = 1 << 5 // timer
	SIE_SSIE = 1 << 1 // software

	SIP_SSIP = 1 << 1 // software interrupt pending
)

// scause values the trap plane dispatches on (spec.md section 4.3); the
// interrupt bit (bit 63) is set for interrupts, clear for exceptions.
const (
	SCAUSE_INTR_BIT           = uintptr(1) << 63
	SCAUSE_SUPERVISOR_SOFT    = SCAUSE_INTR_BIT | 1
	SCAUSE_SUPERVISOR_TIMER   = SCAUSE_INTR_BIT | 5
	SCAUSE_SUPERVISOR_EXTERN  = SCAUSE_INTR_BIT | 9
	SCAUSE_ECALL_FROM_U       = 8
	SCAUSE_ECALL_FROM_S       = 9
	SCAUSE_STORE_PAGE_FAULT   = 15
	SCAUSE_LOAD_PAGE_FAULT    = 13
	SCAUSE_INSTR_PAGE_FAULT   = 12
	SCAUSE_ILLEGAL_INSTR      = 2
)

// SATP mode for Sv39.
const SATP_SV39 = uintptr(8) << 60

func MAKE_SATP(pagetable pagetable_t) uintptr {
	return SATP_SV39 | (uintptr(pagetable) >> 12)
}

// CSR accessors. These are provided by a small assembly file shipped
// alongside the kernel image (outside this Go module, same as the
// teacher's sync_test_and_set/uart_putc primitives) because RISC-V CSR
// access has no Go-level syntax; the linkname pattern below is the
// teacher's own convention (spinlock.go, kalloc.go) generalized to the
// trap-plane registers spec.md section 4.3 reads.

//go:linkname r_scause r_scause
func r_scause() uintptr

//go:linkname r_sepc r_sepc
func r_sepc() uintptr

//go:linkname w_sepc w_sepc
func w_sepc(x uintptr)

//go:linkname r_stval r_stval
func r_stval() uintptr

//go:linkname r_sstatus r_sstatus
func r_sstatus() uintptr

//go:linkname w_sstatus w_sstatus
func w_sstatus(x uintptr)

//go:linkname r_sip r_sip
func r_sip() uintptr

//go:linkname w_sip w_sip
func w_sip(x uintptr)

//go:linkname r_sie r_sie
func r_sie() uintptr

//go:linkname w_sie w_sie
func w_sie(x uintptr)

//go:linkname w_stvec w_stvec
func w_stvec(x uintptr)

//go:linkname w_satp w_satp
func w_satp(x uintptr)

//go:linkname r_satp r_satp
func r_satp() uintptr

//go:linkname w_sscratch w_sscratch
func w_sscratch(x uintptr)

//go:linkname r_tp r_tp
func r_tp() uintptr // hartid, set by boot assembly before KMain runs

//go:linkname intr_on intr_on
func intr_on()

//go:linkname intr_off intr_off
func intr_off()

//go:linkname intr_get intr_get
func intr_get() bool

//go:linkname sfence_vma sfence_vma
func sfence_vma()
