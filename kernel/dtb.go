package main

import "encoding/binary"

// Platform is the boot-time configuration spec.md section 4.1/6 says
// the DTB supplies: UART/PLIC/CLINT bases and the UART's IRQ line,
// the usable memory range, and the hart count. The console and PLIC
// code read UARTBase/UARTIRQ and boot reads NHart from this struct;
// PLICBase, CLINTBase, MemBase and MemSize are parsed but not read, and
// the PLIC, CLINT and RAM bounds come from the constants in
// memlayout.go. Grounded on iansmith-mazarin's dtb_qemu.go and
// original_source's kernel/src/dtb/{parser,types}.rs.
type Platform struct {
	UARTBase  uintptr
	UARTIRQ   int
	PLICBase  uintptr
	CLINTBase uintptr
	MemBase   uintptr
	MemSize   uintptr
	NHart     int
}

const (
	fdtMagic      = 0xd00dfeed
	fdtBeginNode  = 0x1
	fdtEndNode    = 0x2
	fdtProp       = 0x3
	fdtNop        = 0x4
	fdtEnd        = 0x9
)

type fdtHeader struct {
	Magic            uint32
	TotalSize        uint32
	OffDtStruct      uint32
	OffDtStrings     uint32
	OffMemRsvmap     uint32
	Version          uint32
	LastCompVersion  uint32
	BootCpuidPhys    uint32
	SizeDtStrings    uint32
	SizeDtStruct     uint32
}

// parseDTBBytes walks a flattened device tree image and extracts the
// platform description. It has no unsafe.Pointer/uintptr-to-memory
// arithmetic -- only encoding/binary big-endian reads over a []byte --
// so it is exercised directly by dtb_test.go on the host; parseDTB
// below is the thin wrapper that hands it the real DTB's bytes at boot.
func parseDTBBytes(data []byte) (Platform, bool) {
	if len(data) < 40 {
		return Platform{}, false
	}
	var hdr fdtHeader
	hdr.Magic = binary.BigEndian.Uint32(data[0:4])
	hdr.TotalSize = binary.BigEndian.Uint32(data[4:8])
	hdr.OffDtStruct = binary.BigEndian.Uint32(data[8:12])
	hdr.OffDtStrings = binary.BigEndian.Uint32(data[12:16])
	if hdr.Magic != fdtMagic {
		return Platform{}, false
	}

	structOff := int(hdr.OffDtStruct)
	stringsOff := int(hdr.OffDtStrings)

	var plat Platform
	var cpuDepth = -1
	depth := 0
	nodeName := ""
	compatible := ""
	var regCells []uint64
	var interrupts []uint32

	flushNode := func() {
		switch {
		case hasPrefix(nodeName, "cpu@"):
			plat.NHart++
		case compatible == "ns16550a":
			if len(regCells) >= 1 {
				plat.UARTBase = uintptr(regCells[0])
			}
			if len(interrupts) >= 1 {
				plat.UARTIRQ = int(interrupts[0])
			}
		case hasPrefix(compatible, "riscv,plic"):
			if len(regCells) >= 1 {
				plat.PLICBase = uintptr(regCells[0])
			}
		case hasPrefix(nodeName, "clint@"):
			if len(regCells) >= 1 {
				plat.CLINTBase = uintptr(regCells[0])
			}
		case nodeName == "memory" || hasPrefix(nodeName, "memory@"):
			if len(regCells) >= 2 {
				plat.MemBase = uintptr(regCells[0])
				plat.MemSize = uintptr(regCells[1])
			}
		}
		compatible = ""
		regCells = nil
		interrupts = nil
	}

	off := structOff
	for off+4 <= len(data) {
		token := binary.BigEndian.Uint32(data[off : off+4])
		off += 4
		switch token {
		case fdtBeginNode:
			end := indexByte(data, off)
			if end < 0 {
				return Platform{}, false
			}
			nodeName = string(data[off:end])
			off = align4(end + 1)
			depth++
			if hasPrefix(nodeName, "cpus") {
				cpuDepth = depth
			}
			_ = cpuDepth
		case fdtEndNode:
			flushNode()
			nodeName = ""
			depth--
		case fdtProp:
			if off+8 > len(data) {
				return Platform{}, false
			}
			plen := binary.BigEndian.Uint32(data[off : off+4])
			nameoff := binary.BigEndian.Uint32(data[off+4 : off+8])
			off += 8
			if off+int(plen) > len(data) {
				return Platform{}, false
			}
			val := data[off : off+int(plen)]
			propName := cString(data, stringsOff+int(nameoff))
			switch propName {
			case "compatible":
				compatible = cString(val, 0)
			case "reg":
				regCells = decodeCells(val)
			case "interrupts", "interrupts-extended":
				interrupts = decodeU32s(val)
			}
			off = align4(off + int(plen))
		case fdtNop:
			// no-op token, nothing to do
		case fdtEnd:
			return plat, plat.UARTBase != 0
		default:
			return Platform{}, false
		}
	}
	return plat, plat.UARTBase != 0
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func indexByte(b []byte, start int) int {
	for i := start; i < len(b); i++ {
		if b[i] == 0 {
			return i
		}
	}
	return -1
}

func cString(b []byte, start int) string {
	end := indexByte(b, start)
	if end < 0 {
		return ""
	}
	return string(b[start:end])
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// decodeCells reads a "reg" property as pairs of 64-bit big-endian
// cells -- the common #address-cells=2 #size-cells=2 convention qemu's
// virt machine uses for memory/uart/plic/clint nodes.
func decodeCells(b []byte) []uint64 {
	var out []uint64
	for i := 0; i+8 <= len(b); i += 8 {
		out = append(out, binary.BigEndian.Uint64(b[i:i+8]))
	}
	return out
}

func decodeU32s(b []byte) []uint32 {
	var out []uint32
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, binary.BigEndian.Uint32(b[i:i+4]))
	}
	return out
}

// parseDTB reads the DTB image placed in physical memory at dtbPhys
// (the pointer boot assembly hands KMain, per spec.md section 4.1) and
// returns the parsed Platform, falling back to the fixed constants in
// memlayout.go if parsing fails.
func parseDTB(dtbPhys uintptr) Platform {
	if dtbPhys == 0 {
		return fallbackPlatform()
	}
	size := dtbTotalSize(dtbPhys)
	data := physBytes(dtbPhys, size)
	plat, ok := parseDTBBytes(data)
	if !ok {
		return fallbackPlatform()
	}
	if plat.NHart == 0 {
		plat.NHart = 1
	}
	return plat
}

func fallbackPlatform() Platform {
	return Platform{
		UARTBase:  UART0,
		UARTIRQ:   UART0_IRQ,
		PLICBase:  PLIC,
		CLINTBase: CLINT,
		MemBase:   KERNBASE,
		MemSize:   PHYSTOP - KERNBASE,
		NHart:     1,
	}
}

func dtbTotalSize(dtbPhys uintptr) int {
	b := physBytes(dtbPhys, 8)
	if len(b) < 8 {
		return 0
	}
	return int(binary.BigEndian.Uint32(b[4:8]))
}
