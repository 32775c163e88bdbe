package main

const direntSize = 64
const direntNameLen = 60

// encodeDentry and decodeDentry are the pure (inum, name[60]) <->
// bytes conversions spec.md section 6 fixes at 64 bytes per entry;
// they touch no cache or lock, so dir_test.go exercises them directly
// on the host, the same split mmap.go/bitmap.go use.
func encodeDentry(dst []byte, inum int, name string) {
	putLeUint32(dst[0:4], uint32(inum))
	for i := 4; i < direntSize; i++ {
		dst[i] = 0
	}
	copy(dst[4:4+direntNameLen], name)
}

func decodeDentry(src []byte) (inum int, name string) {
	inum = int(leUint32(src[0:4]))
	name = gostring(src[4 : 4+direntNameLen])
	return
}

// findDentry scans a directory block's worth of entries (buf must be a
// multiple of direntSize) and returns the index of the first entry
// matching pred, or -1.
func findDentry(buf []byte, pred func(inum int, name string) bool) int {
	for i := 0; i+direntSize <= len(buf); i += direntSize {
		inum, name := decodeDentry(buf[i : i+direntSize])
		if pred(inum, name) {
			return i / direntSize
		}
	}
	return -1
}

func findFreeDentrySlot(buf []byte) int {
	return findDentry(buf, func(inum int, name string) bool { return inum == 0 })
}

func findDentryByName(buf []byte, name string) int {
	return findDentry(buf, func(inum int, n string) bool { return inum != 0 && n == name })
}

// dentryCreate writes (targetInum, name) into the first free slot of
// dirInum's directory data, growing it by one entry if none is free.
// Fails if name already exists (spec.md section 4.9).
func dentryCreate(dirInum, targetInum int, name string) bool {
	dip := inodeGet(dirInum)
	if dip == nil {
		return false
	}
	loadInode(dip)

	buf := make([]byte, dip.size)
	inodeReadData(dip, 0, buf, len(buf))

	if idx := findDentryByName(buf, name); idx >= 0 {
		inodePut(dip)
		return false
	}

	var entry [direntSize]byte
	encodeDentry(entry[:], targetInum, name)

	if idx := findFreeDentrySlot(buf); idx >= 0 {
		inodeWriteData(dip, idx*direntSize, entry[:], direntSize)
		inodePut(dip)
		return true
	}
	inodeWriteData(dip, len(buf), entry[:], direntSize)
	inodePut(dip)
	return true
}

// dentrySearch returns the target inum for name inside dirInum's
// directory, or -1.
func dentrySearch(dirInum int, name string) int {
	dip := inodeGet(dirInum)
	if dip == nil {
		return -1
	}
	loadInode(dip)

	buf := make([]byte, dip.size)
	inodeReadData(dip, 0, buf, len(buf))

	idx := findDentryByName(buf, name)
	if idx < 0 {
		inodePut(dip)
		return -1
	}
	inum, _ := decodeDentry(buf[idx*direntSize : idx*direntSize+direntSize])
	inodePut(dip)
	return inum
}

// dentryDelete zeroes the slot for name and returns the inum it used
// to hold, or -1 if no such entry exists.
func dentryDelete(dirInum int, name string) int {
	dip := inodeGet(dirInum)
	if dip == nil {
		return -1
	}
	loadInode(dip)

	buf := make([]byte, dip.size)
	inodeReadData(dip, 0, buf, len(buf))

	idx := findDentryByName(buf, name)
	if idx < 0 {
		inodePut(dip)
		return -1
	}
	inum, _ := decodeDentry(buf[idx*direntSize : idx*direntSize+direntSize])

	var empty [direntSize]byte
	inodeWriteData(dip, idx*direntSize, empty[:], direntSize)
	inodePut(dip)
	return inum
}

func dentryPrint(dirInum int) {
	dip := inodeGet(dirInum)
	if dip == nil {
		return
	}
	loadInode(dip)

	buf := make([]byte, dip.size)
	inodeReadData(dip, 0, buf, len(buf))
	for i := 0; i+direntSize <= len(buf); i += direntSize {
		inum, name := decodeDentry(buf[i : i+direntSize])
		if inum != 0 {
			kinfo("dentry: %s -> %d\n", name, inum)
		}
	}
	inodePut(dip)
}
