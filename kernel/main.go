package main

// main is never called: the real entry point is KMain (boot.go),
// exported for the boot assembly to tail-call into. A plain func main
// keeps this package buildable as a normal Go program, the same reason
// the teacher kept one.
func main() {}