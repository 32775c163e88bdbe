package main

import _ "unsafe"

// initcodeStart/initcodeEnd bound the embedded user image blob the
// build orchestration links into the kernel at a known symbol (spec.md
// section 6: "The core only consumes the embedded user image at a
// known symbol"). Declared the same way the teacher declares
// get_etext/get_end: a linker-provided address with no Go-side body.
//
//go:linkname initcodeStart initcodeStart
var initcodeStart uintptr

//go:linkname initcodeEnd initcodeEnd
var initcodeEnd uintptr

func bootPayload() []byte {
	n := int(initcodeEnd - initcodeStart)
	return physBytes(initcodeStart, n)
}

// globalsReady is hart 0's signal that frame allocator, kernel page
// table, trap plane, PLIC priorities, proc table, and buffer cache are
// all initialised; secondary harts spin on it before running their own
// per-hart init (spec.md section 4.1).
var globalsReady bool

// KMain is the kernel entry point every hart's boot assembly tail-calls
// with (hartid, dtb_phys) already loaded into a0/a1 by convention; hart
// 0 takes the global-init path, every other hart waits and then joins
// the scheduler.
//
//go:linkname bootHartID bootHartID
func bootHartID() int

//go:linkname bootDTB bootDTB
func bootDTB() uintptr

//export KMain
func KMain() {
	hart := bootHartID()

	if hart == 0 {
		platform = parseDTB(bootDTB())

		kinit()
		kvminit()
		kvminithart(kernel_pagetable)
		procinit()
		trapinit()
		trapinithart()
		plicinit()
		plicinithart()
		consoleinit()
		bcacheinit()
		inodeCacheInit()

		userinit()

		sfence_vma()
		globalsReady = true

		for h := 1; h < platform.NHart; h++ {
			if ret := sbiHartStart(h, secondaryEntryAddr(), 0); ret != 0 {
				kwarn("sbiHartStart(%d) failed: %d\n", h, ret)
			}
		}
	} else {
		for !globalsReady {
		}
		kvminithart(kernel_pagetable)
		trapinithart()
		plicinithart()
	}

	printf("hart %d starting\n", hart)
	scheduler()
}

//go:linkname secondaryEntryAddr secondaryEntryAddr
func secondaryEntryAddr() uintptr
