package main

import "unsafe"

// trapframePtr recovers the process's Trapframe from its physical
// address, which usertrap leaves unchanged across the syscall itself
// (spec.md section 4.6).
func trapframePtr(p *KProc) unsafe.Pointer {
	return unsafe.Pointer(p.trapframe)
}

const (
	sysHelloworldNo = 1
	sysCopyinNo     = 2
	sysCopyoutNo    = 3
	sysCopyinstrNo  = 4
	sysBrkNo        = 5
	sysMmapNo       = 6
	sysMunmapNo     = 7
	sysPrintStrNo   = 8
	sysPrintIntNo   = 9
	sysGetpidNo     = 10
	sysAllocBlockNo = 11
	sysFreeBlockNo  = 12
	sysAllocInodeNo = 13
	sysFreeInodeNo  = 14
	sysShowBitmapNo = 15
	sysGetBlockNo   = 16
	sysReadBlockNo  = 17
	sysWriteBlockNo = 18
	sysPutBlockNo   = 19
	sysShowBufferNo = 20
	sysFlushBufNo   = 21
	sysForkNo       = 22
	sysWaitNo       = 23
	sysExitNo       = 24
	sysSleepNo      = 25
	sysInodeCreateNo     = 26
	sysInodeDupNo        = 27
	sysInodePutNo        = 28
	sysInodeSetNlinkNo   = 29
	sysInodeGetRefcntNo  = 30
	sysInodePrintNo      = 31
	sysInodeWriteDataNo  = 32
	sysInodeReadDataNo   = 33
	sysDentryCreateNo    = 34
	sysDentrySearchNo    = 35
	sysDentryDeleteNo    = 36
	sysDentryPrintNo     = 37
	sysPathToInodeNo     = 38
	sysPathToParentNo    = 39
	sysPrepareRootNo     = 40
	sysExecNo            = 41
)

// syscall dispatches on a7 to the handler table, returning the value
// usertrap stores into a0. An unrecognised number is a bad user
// argument, not a kernel error (spec.md section 7): it returns -1 and
// the process continues.
func syscall(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	switch tf.A7 {
	case sysHelloworldNo:
		return sysHelloworld(p)
	case sysCopyinNo:
		return sysCopyin(p)
	case sysCopyoutNo:
		return sysCopyout(p)
	case sysCopyinstrNo:
		return sysCopyinstr(p)
	case sysBrkNo:
		return sysBrk(p)
	case sysMmapNo:
		return sysMmap(p)
	case sysMunmapNo:
		return sysMunmap(p)
	case sysPrintStrNo:
		return sysPrintStr(p)
	case sysPrintIntNo:
		return sysPrintInt(p)
	case sysGetpidNo:
		return sysGetpid(p)
	case sysAllocBlockNo:
		return sysAllocBlock(p)
	case sysFreeBlockNo:
		return sysFreeBlock(p)
	case sysAllocInodeNo:
		return sysAllocInode(p)
	case sysFreeInodeNo:
		return sysFreeInode(p)
	case sysShowBitmapNo:
		return sysShowBitmap(p)
	case sysGetBlockNo:
		return sysGetBlock(p)
	case sysReadBlockNo:
		return sysReadBlock(p)
	case sysWriteBlockNo:
		return sysWriteBlock(p)
	case sysPutBlockNo:
		return sysPutBlock(p)
	case sysShowBufferNo:
		return sysShowBuffer(p)
	case sysFlushBufNo:
		return sysFlushBuf(p)
	case sysForkNo:
		return sysFork(p)
	case sysWaitNo:
		return sysWait(p)
	case sysExitNo:
		return sysExit(p)
	case sysSleepNo:
		return sysSleep(p)
	case sysInodeCreateNo:
		return sysInodeCreate(p)
	case sysInodeDupNo:
		return sysInodeDup(p)
	case sysInodePutNo:
		return sysInodePut(p)
	case sysInodeSetNlinkNo:
		return sysInodeSetNlink(p)
	case sysInodeGetRefcntNo:
		return sysInodeGetRefcnt(p)
	case sysInodePrintNo:
		return sysInodePrint(p)
	case sysInodeWriteDataNo:
		return sysInodeWriteData(p)
	case sysInodeReadDataNo:
		return sysInodeReadData(p)
	case sysDentryCreateNo:
		return sysDentryCreate(p)
	case sysDentrySearchNo:
		return sysDentrySearch(p)
	case sysDentryDeleteNo:
		return sysDentryDelete(p)
	case sysDentryPrintNo:
		return sysDentryPrint(p)
	case sysPathToInodeNo:
		return sysPathToInode(p)
	case sysPathToParentNo:
		return sysPathToParent(p)
	case sysPrepareRootNo:
		return sysPrepareRoot(p)
	case sysExecNo:
		return sysExec(p)
	default:
		kwarn("unknown syscall %d from pid %d\n", int(tf.A7), p.pid)
		return -1
	}
}
