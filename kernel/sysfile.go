package main

const maxPathLen = 256

// copyinPath reads a NUL-terminated path string out of the user
// address space at va, the same convention execSyscall already uses.
func copyinPath(p *KProc, va uintptr) (string, bool) {
	var buf [maxPathLen]byte
	if !copyinstr(p.pagetable, buf[:], va) {
		return "", false
	}
	return gostring(buf[:]), true
}

func sysAllocBlock(p *KProc) int {
	return allocBlock()
}

func sysFreeBlock(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	freeBlock(int(tf.A0))
	return 0
}

func sysAllocInode(p *KProc) int {
	return allocInode()
}

func sysFreeInode(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	freeInode(int(tf.A0))
	return 0
}

func sysShowBitmap(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	showBitmap(int(tf.A0))
	return 0
}

// sysGetBlock pins block (a0=dev, a1=blkno) in the per-process held
// slot that read_block/write_block/put_block/show_buffer act on, the
// get_block/put_block bracketing pattern spec.md section 4.7 assumes.
func sysGetBlock(p *KProc) int {
	if p.heldBuf != nil {
		return -1
	}
	tf := (*Trapframe)(trapframePtr(p))
	p.heldBuf = getBlock(int(tf.A0), int(tf.A1))
	return 0
}

func sysPutBlock(p *KProc) int {
	if p.heldBuf == nil {
		return -1
	}
	putBlock(p.heldBuf)
	p.heldBuf = nil
	return 0
}

// sysReadBlock/sysWriteBlock copy a0=user_va, a1=off, a2=n against the
// held buffer's backing array.
func sysReadBlock(p *KProc) int {
	if p.heldBuf == nil {
		return -1
	}
	tf := (*Trapframe)(trapframePtr(p))
	off, n := int(tf.A1), int(tf.A2)
	if off < 0 || n < 0 || off+n > BSIZE {
		return -1
	}
	if !copyout(p.pagetable, tf.A0, p.heldBuf.data[off:off+n]) {
		return -1
	}
	return n
}

func sysWriteBlock(p *KProc) int {
	if p.heldBuf == nil {
		return -1
	}
	tf := (*Trapframe)(trapframePtr(p))
	off, n := int(tf.A1), int(tf.A2)
	if off < 0 || n < 0 || off+n > BSIZE {
		return -1
	}
	if !copyin(p.pagetable, p.heldBuf.data[off:off+n], tf.A0) {
		return -1
	}
	writeBlock(p.heldBuf)
	return n
}

func sysShowBuffer(p *KProc) int {
	if p.heldBuf == nil {
		return -1
	}
	kinfo("buffer: dev=%d blkno=%d dirty=%d refs=%d\n",
		p.heldBuf.dev, p.heldBuf.blkno, boolToInt(p.heldBuf.dirty), p.heldBuf.refs)
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sysFlushBuf(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	flushBuffer(int(tf.A0))
	return 0
}

func sysInodeCreate(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	return inodeCreate(int(tf.A0))
}

// sysInodeDup takes a fresh cache reference on a0's inum, the way
// inode_dup(inum) is documented to behave against an already-cached
// inode (spec.md section 4.9).
func sysInodeDup(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	ip := inodeGet(int(tf.A0))
	if ip == nil {
		return -1
	}
	return ip.inum
}

func sysInodePut(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	if !inodePutByInum(int(tf.A0)) {
		return -1
	}
	return 0
}

func sysInodeSetNlink(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	ip := inodeGet(int(tf.A0))
	if ip == nil {
		return -1
	}
	inodeSetNlink(ip, int(tf.A1))
	inodePut(ip)
	return 0
}

func sysInodeGetRefcnt(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	return inodeCachedRefcnt(int(tf.A0))
}

func sysInodePrint(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	inodePrint(int(tf.A0))
	return 0
}

// sysInodeWriteData/sysInodeReadData: a0=inum, a1=off, a2=user_va, a3=n.
func sysInodeWriteData(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	ip := inodeGet(int(tf.A0))
	if ip == nil {
		return -1
	}

	n := int(tf.A3)
	if n < 0 || n > BSIZE {
		inodePut(ip)
		return -1
	}
	buf := make([]byte, n)
	if !copyin(p.pagetable, buf, tf.A2) {
		inodePut(ip)
		return -1
	}
	wrote := inodeWriteData(ip, int(tf.A1), buf, n)
	inodePut(ip)
	return wrote
}

func sysInodeReadData(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	ip := inodeGet(int(tf.A0))
	if ip == nil {
		return -1
	}

	n := int(tf.A3)
	if n < 0 || n > BSIZE {
		inodePut(ip)
		return -1
	}
	buf := make([]byte, n)
	got := inodeReadData(ip, int(tf.A1), buf, n)
	if got < 0 {
		inodePut(ip)
		return -1
	}
	if !copyout(p.pagetable, tf.A2, buf[:got]) {
		inodePut(ip)
		return -1
	}
	inodePut(ip)
	return got
}

// sysDentryCreate/Search/Delete: a0=dirInum, a1=target inum (create
// only), a2/a1=user_va holding the NUL-terminated name.
func sysDentryCreate(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	name, ok := copyinPath(p, tf.A2)
	if !ok {
		return -1
	}
	if !dentryCreate(int(tf.A0), int(tf.A1), name) {
		return -1
	}
	return 0
}

func sysDentrySearch(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	name, ok := copyinPath(p, tf.A1)
	if !ok {
		return -1
	}
	return dentrySearch(int(tf.A0), name)
}

func sysDentryDelete(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	name, ok := copyinPath(p, tf.A1)
	if !ok {
		return -1
	}
	return dentryDelete(int(tf.A0), name)
}

func sysDentryPrint(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	dentryPrint(int(tf.A0))
	return 0
}

func sysPathToInode(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	path, ok := copyinPath(p, tf.A0)
	if !ok {
		return -1
	}
	return pathToInode(path)
}

// sysPathToParent: a0=path va, a1=out_tail va (60 bytes).
func sysPathToParent(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	path, ok := copyinPath(p, tf.A0)
	if !ok {
		return -1
	}
	var tail [direntNameLen]byte
	parent := pathToParent(path, tail[:])
	if parent < 0 {
		return -1
	}
	if !copyout(p.pagetable, tf.A1, tail[:]) {
		return -1
	}
	return parent
}

func sysPrepareRoot(p *KProc) int {
	prepareRoot()
	return 0
}

// sysExec: a0=path va. Replaces the calling process's address space in
// place (spec.md section 4.5); on failure the process keeps running
// with its old image, exec returns -1.
func sysExec(p *KProc) int {
	tf := (*Trapframe)(trapframePtr(p))
	return execSyscall(p, tf.A0)
}
