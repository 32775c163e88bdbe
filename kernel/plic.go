package main

import "unsafe"

var platform Platform

func mmioWrite32(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

func mmioRead32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

// plicinit enables the UART's interrupt line at its global priority;
// done once by hart 0 (spec.md section 4.1).
func plicinit() {
	mmioWrite32(PLIC_PRIORITY+uintptr(platform.UARTIRQ)*4, 1)
}

// plicinithart enables the UART IRQ for this hart's supervisor context
// and sets its threshold to 0 so every enabled priority fires. Each
// hart runs this during its own per-hart init (spec.md section 4.1).
func plicinithart() {
	hart := cpuid()
	mmioWrite32(PLIC_SENABLE(hart), 1<<uint(platform.UARTIRQ))
	mmioWrite32(PLIC_SPRIORITY(hart), 0)
}

// plicClaim asks the PLIC which interrupt this hart should service
// next, or 0 if none is pending (spec.md section 4.3).
func plicClaim() int {
	hart := cpuid()
	return int(mmioRead32(PLIC_SCLAIM(hart)))
}

// plicComplete tells the PLIC this hart is done servicing irq.
func plicComplete(irq int) {
	hart := cpuid()
	mmioWrite32(PLIC_SCLAIM(hart), uint32(irq))
}
