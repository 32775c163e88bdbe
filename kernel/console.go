package main

import "unsafe"

const (
	uartRHR = 0 // receive holding register (read)
	uartTHR = 0 // transmit holding register (write)
	uartIER = 1
	uartFCR = 2
	uartLCR = 3
	uartLSR = 5

	uartIERRxEnable = 1 << 0
	uartLSRRxReady  = 1 << 0
)

func mmioRead8(addr uintptr) byte     { return *(*byte)(unsafe.Pointer(addr)) }
func mmioWrite8(addr uintptr, v byte) { *(*byte)(unsafe.Pointer(addr)) = v }

// uartinit enables the UART's receive-data-available interrupt
// (spec.md section 4.2's "Initialisation enables the receive-data-
// available interrupt via IER bit 0").
func uartinit() {
	mmioWrite8(platform.UARTBase+uartIER, uartIERRxEnable)
}

const consoleBufSize = 128

// console is the interrupt-driven RX side of the UART: a bounded ring
// buffer filled byte-by-byte by uartintr and drained line-at-a-time by
// consoleread, matching original_source's drivers/uart/irq.rs +
// trap/handler/kernel/uart.rs pairing that spec.md section 9 flags as
// unspecified (the "UART RX ring buffer and console_read" supplemented
// feature).
type console struct {
	lock spinlock

	buf          [consoleBufSize]byte
	readIdx      int // next byte consoleread will consume
	writeIdx     int // end of the newline-terminated input consoleread may consume
	editIdx      int // next slot uartintr will fill; [writeIdx, editIdx) is the line being edited
}

var cons console

func consoleinit() {
	initNamedLock(&cons.lock, "cons")
	uartinit()
}

const (
	ctrlU = 0x15
	bs    = 0x08
	del   = 0x7f
)

// uartintr drains the receive FIFO and applies spec.md section 4.2's
// line-editing rules: \r and \n both echo as \n and end the current
// line; backspace/delete echo as the erase-in-place sequence and step
// the edit cursor back; everything else echoes verbatim and is queued.
func uartintr() {
	for {
		if mmioRead8(platform.UARTBase+uartLSR)&uartLSRRxReady == 0 {
			break
		}
		c := mmioRead8(platform.UARTBase + uartRHR)
		consoleIntr(c)
	}
}

func consoleIntr(c byte) {
	acquire(&cons.lock)
	switch c {
	case '\r', '\n':
		uart_putc('\n')
		cons.buf[cons.editIdx%consoleBufSize] = '\n'
		cons.editIdx++
		cons.writeIdx = cons.editIdx
		wakeup(consoleChan())
	case ctrlU:
		for cons.editIdx != cons.writeIdx && cons.buf[(cons.editIdx-1)%consoleBufSize] != '\n' {
			cons.editIdx--
			eraseInPlace()
		}
	case bs, del:
		if cons.editIdx != cons.writeIdx {
			cons.editIdx--
			eraseInPlace()
		}
	default:
		if cons.editIdx-cons.readIdx < consoleBufSize-1 {
			uart_putc(c)
			cons.buf[cons.editIdx%consoleBufSize] = c
			cons.editIdx++
		}
	}
	release(&cons.lock)
}

func eraseInPlace() {
	uart_putc(bs)
	uart_putc(' ')
	uart_putc(bs)
}

func consoleChan() uintptr {
	return uintptr(unsafe.Pointer(&cons))
}

// consoleread blocks until a full line is available, then copies up to
// len(dst) bytes of it (including the trailing '\n') into dst, returning
// the number of bytes copied.
func consoleread(dst []byte) int {
	acquire(&cons.lock)
	n := 0
	for n < len(dst) {
		for cons.readIdx == cons.writeIdx {
			if myproc().killed {
				release(&cons.lock)
				return -1
			}
			sleep(consoleChan(), &cons.lock)
		}
		c := cons.buf[cons.readIdx%consoleBufSize]
		cons.readIdx++
		dst[n] = c
		n++
		if c == '\n' {
			break
		}
	}
	release(&cons.lock)
	return n
}

// consolewrite writes src to the UART through the polled path, the
// same sink panicf and printf use, serialized by printlock rather than
// cons.lock since output ordering across the two is not meaningful.
func consolewrite(src []byte) int {
	ensurePrintlock()
	acquire(&printlock)
	for _, c := range src {
		uart_putc(c)
	}
	release(&printlock)
	return len(src)
}
