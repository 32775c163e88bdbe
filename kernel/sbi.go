package main

import _ "unsafe"

// sbiCall is the single assembly-provided ecall trampoline; the SBI
// calling convention (eid in a7, fid in a6, args in a0..a2, error in
// a0, value in a1) has no Go-level syntax, same reasoning as the CSR
// accessors in riscv.go.
//
//go:linkname sbiCall sbiCall
func sbiCall(eid, fid, arg0, arg1, arg2 uintptr) uintptr

const (
	sbiExtConsolePutchar = 0x01
	sbiExtSetTimer       = 0x00
	sbiExtHSM            = 0x48534D
	sbiFnHSMHartStart    = 0x0
)

// sbiConsolePutchar is the legacy single-character console extension.
// Nothing in this package calls it: printf and panicf write through
// uart_putc.
func sbiConsolePutchar(c byte) {
	sbiCall(sbiExtConsolePutchar, 0, uintptr(c), 0, 0)
}

// sbiSetTimer arms the next supervisor timer interrupt for time
// absolute, per spec.md section 4.3's "arm the next tick via SBI
// set_timer(now + INTERVAL)".
func sbiSetTimer(absolute uint64) {
	sbiCall(sbiExtSetTimer, 0, uintptr(absolute), 0, 0)
}

// sbiHartStart brings up a secondary hart at startAddr with opaque
// passed through a1, the SBI HSM extension (spec.md section 4.1 and
// section 6's named SBI surface).
func sbiHartStart(hartid int, startAddr uintptr, opaque uintptr) int {
	ret := sbiCall(sbiExtHSM, sbiFnHSMHartStart, uintptr(hartid), startAddr, opaque)
	return int(ret)
}
