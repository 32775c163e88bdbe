package main

import (
	_ "runtime"
	_ "unsafe"
)

//go:linkname uart_putc uart_putc
func uart_putc(c byte)

// printlock serializes formatted output across harts (spec.md section
// 4.2); it is a leaf in the lock order (spec.md section 5) so it is
// always safe to take last.
var printlock spinlock
var printlockInit bool

func ensurePrintlock() {
	if !printlockInit {
		initNamedLock(&printlock, "pr")
		printlockInit = true
	}
}

func printInt(num int) {
	// Int in Go ranges from -9,223,372,036,854,775,808
	//					 to   9,223,372,036,854,775,807.
	// We need roughly 20 bytes to store it.
	var buf [20]byte
	i := 0

	if num == 0 {
		uart_putc('0')
		return
	}

	neg := num < 0
	if neg {
		num = -num
	}

	for num > 0 {
		buf[i] = byte(num%10) + '0'
		i++
		num = num / 10
	}

	if neg {
		uart_putc('-')
	}
	for i = i - 1; i >= 0; i-- {
		uart_putc(buf[i])
	}
}

const hexdigits = "0123456789abcdef"

func printHex(num uintptr) {
	uart_putc('0')
	uart_putc('x')
	if num == 0 {
		uart_putc('0')
		return
	}
	var buf [16]byte
	i := 0
	for num > 0 {
		buf[i] = hexdigits[num&0xf]
		i++
		num >>= 4
	}
	for i = i - 1; i >= 0; i-- {
		uart_putc(buf[i])
	}
}

func printString(str string) {
	for _, c := range str {
		uart_putc(byte(c))
	}
}

// printf is the teacher's original formatted-print routine, extended
// with %x (hex uintptr/int) and %p (pointer, same rendering as %x) and
// serialized by printlock so concurrent harts cannot interleave a single
// call's output.
func printf(format string, args ...interface{}) {
	ensurePrintlock()
	acquire(&printlock)
	printfLocked(format, args...)
	release(&printlock)
}

func printfLocked(format string, args ...interface{}) {
	argIdx := 0
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			i++
			switch format[i] {
			case 'd':
				printInt(args[argIdx].(int))
				argIdx++
			case 's':
				printString(args[argIdx].(string))
				argIdx++
			case 'c':
				switch v := args[argIdx].(type) {
				case int:
					uart_putc(byte(v))
				case int32:
					uart_putc(byte(v))
				default:
					uart_putc('?')
				}
				argIdx++
			case 'x', 'p':
				switch v := args[argIdx].(type) {
				case uintptr:
					printHex(v)
				case int:
					printHex(uintptr(v))
				case uint32:
					printHex(uintptr(v))
				case uint64:
					printHex(uintptr(v))
				default:
					printString("?x?")
				}
				argIdx++
			default:
				uart_putc('%')
				uart_putc(byte(format[i]))
			}
		} else {
			uart_putc(byte(format[i]))
		}
	}
}

func kinfo(format string, args ...interface{}) {
	printf(format, args...)
}

func kwarn(format string, args ...interface{}) {
	printf("warn: "+format, args...)
}

// panicf prints a message, the current hart id, and halts that hart in
// a wfi loop forever. This is the catch-all for spec.md section 7's
// "programmer error" and "unexpected trap in kernel" categories: there is
// no recovery path, and no other address space is in scope to report to.
func panicf(format string, args ...interface{}) {
	ensurePrintlock()
	acquire(&printlock)
	printString("panic: hart ")
	printInt(cpuid())
	printString(": ")
	printfLocked(format, args...)
	uart_putc('\n')
	release(&printlock)
	haltForever()
}

//go:linkname wfi wfi
func wfi()

func haltForever() {
	for {
		wfi()
	}
}
